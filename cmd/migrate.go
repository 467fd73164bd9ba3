package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply run store migrations",
	Long:  "Creates the run store tables. For Postgres this applies the pending nih_awards schema migrations under an advisory lock.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := initStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		zap.L().Info("all migrations applied successfully", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
