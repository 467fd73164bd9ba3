package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/awards-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded fetch runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFISCAL YEARS\tSTATUS\tSTARTED\tDURATION\tROWS\tSHORTFALL\tERROR")
	_, _ = fmt.Fprintln(w, "--\t------------\t------\t-------\t--------\t----\t---------\t-----")

	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		years := make([]string, len(r.FiscalYears))
		for i, fy := range r.FiscalYears {
			years[i] = fmt.Sprint(fy)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			truncateID(r.ID),
			strings.Join(years, ","),
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			r.Stats.Rows,
			r.Stats.Shortfall,
			truncate(r.Error, 60),
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
