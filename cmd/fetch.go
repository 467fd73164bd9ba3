package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/awards-cli/internal/awards"
	"github.com/sells-group/awards-cli/internal/config"
	"github.com/sells-group/awards-cli/internal/db"
	"github.com/sells-group/awards-cli/internal/sink"
	"github.com/sells-group/awards-cli/internal/store"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch, normalize, and write award rows",
	Long:  "Pages through every fiscal-year month, normalizes the records into the 29-column reference layout, writes the configured outputs, and records the run.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		years, _ := cmd.Flags().GetIntSlice("fiscal-years")
		formats, _ := cmd.Flags().GetStringSlice("formats")
		dir, _ := cmd.Flags().GetString("out")

		c, err := withOverrides(cfg, years, formats, dir)
		if err != nil {
			return err
		}
		return runFetch(cmd.Context(), c, time.Now(), os.Stdout)
	},
}

func init() {
	fetchCmd.Flags().IntSlice("fiscal-years", nil, "fiscal years to fetch (overrides reporter.fiscal_years)")
	fetchCmd.Flags().StringSlice("formats", nil, "output formats: csv, xlsx, postgres (overrides output.formats)")
	fetchCmd.Flags().String("out", "", "output directory (overrides output.dir)")
	rootCmd.AddCommand(fetchCmd)
}

// runFetch executes one full run and prints its report to out.
func runFetch(ctx context.Context, c *config.Config, now time.Time, out io.Writer) error {
	log := zap.L().With(zap.String("component", "fetch"))

	engine, err := newEngine(c)
	if err != nil {
		return err
	}

	st, err := initStore(ctx, c)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	var pool db.Pool
	if pg, ok := st.(*store.PostgresStore); ok {
		pool = pg.Pool()
	}

	run, err := st.StartRun(ctx, c.Reporter.FiscalYears)
	if err != nil {
		return eris.Wrap(err, "fetch: start run")
	}
	log = log.With(zap.String("run_id", run.ID))

	// Bookkeeping must land even when ctx is what ended the run.
	bg := context.WithoutCancel(ctx)

	if slices.ContainsFunc(c.Output.Formats, func(f string) bool { return f != "postgres" }) {
		if err := os.MkdirAll(c.Output.Dir, 0o755); err != nil {
			failRun(bg, st, run.ID, err)
			return eris.Wrap(err, "fetch: create output dir")
		}
	}

	sinks, err := sink.New(sink.Options{
		Formats:     c.Output.Formats,
		Dir:         c.Output.Dir,
		Prefix:      c.Output.Prefix,
		FiscalYears: c.Reporter.FiscalYears,
		Day:         now,
		Pool:        pool,
		RunID:       run.ID,
	})
	if err != nil {
		failRun(bg, st, run.ID, err)
		return err
	}

	report, runErr := engine.Run(ctx, c.Reporter.FiscalYears)
	if report != nil {
		if err := st.SavePartitions(bg, run.ID, store.PartitionStats(run.ID, report)); err != nil {
			log.Warn("failed to save partition stats", zap.Error(err))
		}
	}
	if runErr != nil {
		failRun(bg, st, run.ID, runErr)
		return eris.Wrap(runErr, "fetch")
	}

	if err := sink.WriteAll(ctx, sinks, report.Rows); err != nil {
		failRun(bg, st, run.ID, err)
		return eris.Wrap(err, "fetch: write output")
	}

	if err := st.CompleteRun(bg, run.ID, store.StatsFromReport(report)); err != nil {
		return eris.Wrap(err, "fetch: complete run")
	}

	formatReport(out, report, sinks)
	return nil
}

func failRun(ctx context.Context, st store.Store, runID string, cause error) {
	if err := st.FailRun(ctx, runID, cause.Error()); err != nil {
		zap.L().Warn("failed to record run failure", zap.String("run_id", runID), zap.Error(err))
	}
}

// partitionStatus is the one-word outcome shown in the report table.
func partitionStatus(p awards.PartitionSummary) string {
	switch {
	case p.Skipped:
		return "skipped"
	case p.Truncated:
		return "truncated"
	case p.FailedChunks > 0:
		return "partial"
	default:
		return "ok"
	}
}

// formatReport writes the per-partition table, run totals, and column fill
// counts to out.
func formatReport(out io.Writer, r *awards.RunReport, sinks []sink.Sink) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PARTITION\tTOTAL\tRETRIEVED\tSHORTFALL\tCHUNKS\tFAILED\tSTATUS")
	_, _ = fmt.Fprintln(w, "---------\t-----\t---------\t---------\t------\t------\t------")
	for _, p := range r.Partitions {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d/%d\t%d\t%s\n",
			p.Partition, p.TotalCount, p.Retrieved, p.Shortfall(),
			p.ChunksIssued, p.ChunksPlanned, p.FailedChunks, partitionStatus(p))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nReported: %d  Retrieved: %d  Shortfall: %d  Rows: %d  Elapsed: %s\n",
		r.TotalReported(), r.TotalRetrieved(), r.Shortfall(), len(r.Rows), r.Elapsed.Round(time.Millisecond))
	if skipped := r.SkippedPartitions(); len(skipped) > 0 {
		_, _ = fmt.Fprintf(out, "Skipped partitions: %v\n", skipped)
	}
	if truncated := r.TruncatedPartitions(); len(truncated) > 0 {
		_, _ = fmt.Fprintf(out, "Truncated partitions (narrow the date range to recover): %v\n", truncated)
	}

	_, _ = fmt.Fprintln(out, "\nNon-empty values per column:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, n := range awards.FilledCounts(r.Rows) {
		_, _ = fmt.Fprintf(w, "  %s\t%d\n", awards.Columns[i], n)
	}
	_ = w.Flush()

	for _, s := range sinks {
		if t, ok := s.(sink.Target); ok {
			_, _ = fmt.Fprintf(out, "Wrote %s\n", t.Path())
		} else {
			_, _ = fmt.Fprintf(out, "Wrote %s\n", s.Name())
		}
	}
}
