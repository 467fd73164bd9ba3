package awards

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/awards-cli/pkg/reporter"
)

// PartitionSummary is the per-partition line of a RunReport.
type PartitionSummary struct {
	Partition     Partition
	TotalCount    int
	Retrieved     int
	ChunksPlanned int
	ChunksIssued  int
	FailedChunks  int
	Skipped       bool
	Truncated     bool
	Err           string
}

// Shortfall is the number of reported records not retrieved.
func (s PartitionSummary) Shortfall() int {
	if n := s.TotalCount - s.Retrieved; n > 0 {
		return n
	}
	return 0
}

func summarize(r *PartitionResult) PartitionSummary {
	s := PartitionSummary{
		Partition:     r.Partition,
		TotalCount:    r.TotalCount,
		Retrieved:     len(r.Awards),
		ChunksPlanned: r.ChunksPlanned,
		ChunksIssued:  r.ChunksIssued,
		FailedChunks:  len(r.Failures),
		Skipped:       r.Skipped(),
		Truncated:     r.Truncated,
	}
	if r.ProbeErr != nil {
		s.Err = r.ProbeErr.Error()
	}
	return s
}

// RunReport is the outcome of one engine run.
type RunReport struct {
	FiscalYears []int
	Partitions  []PartitionSummary
	Rows        []Row
	Elapsed     time.Duration
}

// TotalReported sums the count-probe totals.
func (r *RunReport) TotalReported() int {
	var n int
	for _, p := range r.Partitions {
		n += p.TotalCount
	}
	return n
}

// TotalRetrieved sums the records retrieved.
func (r *RunReport) TotalRetrieved() int {
	var n int
	for _, p := range r.Partitions {
		n += p.Retrieved
	}
	return n
}

// Shortfall sums the per-partition shortfalls.
func (r *RunReport) Shortfall() int {
	var n int
	for _, p := range r.Partitions {
		n += p.Shortfall()
	}
	return n
}

// SkippedPartitions lists partitions whose count probe failed.
func (r *RunReport) SkippedPartitions() []Partition {
	var out []Partition
	for _, p := range r.Partitions {
		if p.Skipped {
			out = append(out, p.Partition)
		}
	}
	return out
}

// TruncatedPartitions lists partitions cut off at the offset ceiling.
func (r *RunReport) TruncatedPartitions() []Partition {
	var out []Partition
	for _, p := range r.Partitions {
		if p.Truncated {
			out = append(out, p.Partition)
		}
	}
	return out
}

// FailedChunks sums skipped chunk requests.
func (r *RunReport) FailedChunks() int {
	var n int
	for _, p := range r.Partitions {
		n += p.FailedChunks
	}
	return n
}

// Engine drives the planner and fetcher across fiscal years and transforms
// the accumulated records.
type Engine struct {
	fetcher     *Fetcher
	transformer *Transformer
}

// NewEngine creates an engine.
func NewEngine(f *Fetcher, t *Transformer) *Engine {
	return &Engine{fetcher: f, transformer: t}
}

// Run fetches every partition of fiscalYears in order and transforms the
// concatenated records. Partition failures are reported, not returned. On
// cancellation the report holds what was fetched so far and the context
// error is returned alongside it.
func (e *Engine) Run(ctx context.Context, fiscalYears []int) (*RunReport, error) {
	log := zap.L().With(zap.String("component", "awards.engine"))
	start := time.Now()

	report := &RunReport{FiscalYears: append([]int(nil), fiscalYears...)}
	var raw []reporter.Award

	finish := func() {
		report.Rows = e.transformer.TransformAll(raw)
		report.Elapsed = time.Since(start)
	}

	for p := range Plan(fiscalYears) {
		res, err := e.fetcher.FetchPartition(ctx, p)
		if res != nil {
			report.Partitions = append(report.Partitions, summarize(res))
			raw = append(raw, res.Awards...)
		}
		if err != nil {
			finish()
			log.Warn("run cancelled", zap.String("partition", p.String()), zap.Int("retrieved", len(raw)), zap.Error(err))
			return report, err
		}

		log.Info("partition complete",
			zap.String("partition", p.String()),
			zap.Int("total", res.TotalCount),
			zap.Int("retrieved", len(res.Awards)),
			zap.Int("accumulated", len(raw)),
		)
	}

	finish()

	log.Info("run complete",
		zap.Ints("fiscal_years", fiscalYears),
		zap.Int("partitions", len(report.Partitions)),
		zap.Int("reported", report.TotalReported()),
		zap.Int("retrieved", report.TotalRetrieved()),
		zap.Int("shortfall", report.Shortfall()),
		zap.Int("skipped_partitions", len(report.SkippedPartitions())),
		zap.Int("truncated_partitions", len(report.TruncatedPartitions())),
		zap.Int("failed_chunks", report.FailedChunks()),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
