package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/awards-cli/internal/awards"
	"github.com/sells-group/awards-cli/internal/config"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the fiscal-year month partitions a fetch would issue",
	Long:  "Prints every partition and its date range. With --probe, issues one count request per partition and flags months whose total exceeds the retrievable offset window.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		years, _ := cmd.Flags().GetIntSlice("fiscal-years")
		probe, _ := cmd.Flags().GetBool("probe")

		c, err := withOverrides(cfg, years, nil, "")
		if err != nil {
			return err
		}
		return runPlan(cmd.Context(), c, probe, os.Stdout)
	},
}

func init() {
	planCmd.Flags().IntSlice("fiscal-years", nil, "fiscal years to plan (overrides reporter.fiscal_years)")
	planCmd.Flags().Bool("probe", false, "issue count probes and report per-partition totals")
	rootCmd.AddCommand(planCmd)
}

// planLine is one partition with its optional probe outcome.
type planLine struct {
	Partition awards.Partition
	Total     int
	Err       error
}

func runPlan(ctx context.Context, c *config.Config, probe bool, out io.Writer) error {
	var lines []planLine
	if !probe {
		for p := range awards.Plan(c.Reporter.FiscalYears) {
			lines = append(lines, planLine{Partition: p})
		}
		formatPlan(out, lines, false, 0)
		return nil
	}

	f, err := newFetcher(c)
	if err != nil {
		return err
	}
	window := f.Options().Window()

	for p := range awards.Plan(c.Reporter.FiscalYears) {
		total, err := f.Count(ctx, p)
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "plan: probe cancelled")
		}
		if err != nil {
			zap.L().Warn("count probe failed", zap.String("partition", p.String()), zap.Error(err))
		}
		lines = append(lines, planLine{Partition: p, Total: total, Err: err})
	}

	formatPlan(out, lines, true, window)
	return nil
}

// formatPlan writes the partition table. window is the per-partition record
// ceiling used to flag oversized months.
func formatPlan(out io.Writer, lines []planLine, probed bool, window int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if !probed {
		_, _ = fmt.Fprintln(w, "PARTITION\tFROM\tTO")
		_, _ = fmt.Fprintln(w, "---------\t----\t--")
		for _, l := range lines {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", l.Partition, l.Partition.FromDate(), l.Partition.ToDate())
		}
		_ = w.Flush()
		return
	}

	_, _ = fmt.Fprintln(w, "PARTITION\tFROM\tTO\tTOTAL\tNOTE")
	_, _ = fmt.Fprintln(w, "---------\t----\t--\t-----\t----")
	var total, over int
	for _, l := range lines {
		note := ""
		switch {
		case l.Err != nil:
			note = "probe failed: " + truncate(l.Err.Error(), 60)
		case l.Total > window:
			note = fmt.Sprintf("exceeds window by %d", l.Total-window)
			over++
		}
		total += l.Total
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			l.Partition, l.Partition.FromDate(), l.Partition.ToDate(), l.Total, note)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\nTotal: %d across %d partitions (%d over the %d-record window)\n",
		total, len(lines), over, window)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
