// Package store records fetch runs and per-partition coverage.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/awards-cli/internal/awards"
	"github.com/sells-group/awards-cli/internal/config"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// defaultListLimit caps ListRuns when no limit is given.
const defaultListLimit = 20

// RunStats is the rolled-up outcome recorded when a run completes.
type RunStats struct {
	Partitions          int   `json:"partitions"`
	SkippedPartitions   int   `json:"skipped_partitions"`
	TruncatedPartitions int   `json:"truncated_partitions"`
	FailedChunks        int   `json:"failed_chunks"`
	TotalReported       int   `json:"total_reported"`
	Rows                int   `json:"rows"`
	Shortfall           int   `json:"shortfall"`
	ElapsedMs           int64 `json:"elapsed_ms"`
}

// Run is one recorded fetch invocation.
type Run struct {
	ID          string     `json:"id"`
	FiscalYears []int      `json:"fiscal_years"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Stats       RunStats   `json:"stats"`
	Error       string     `json:"error,omitempty"`
}

// PartitionStat is the latest coverage of one fiscal-year month.
type PartitionStat struct {
	RunID         string `json:"run_id"`
	FiscalYear    int    `json:"fiscal_year"`
	Month         int    `json:"month"`
	TotalCount    int    `json:"total_count"`
	Retrieved     int    `json:"retrieved"`
	ChunksPlanned int    `json:"chunks_planned"`
	ChunksIssued  int    `json:"chunks_issued"`
	FailedChunks  int    `json:"failed_chunks"`
	Skipped       bool   `json:"skipped"`
	Truncated     bool   `json:"truncated"`
	Error         string `json:"error,omitempty"`
}

// Store defines the persistence interface for run history.
type Store interface {
	StartRun(ctx context.Context, fiscalYears []int) (*Run, error)
	CompleteRun(ctx context.Context, runID string, stats RunStats) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	SavePartitions(ctx context.Context, runID string, stats []PartitionStat) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		st, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// StatsFromReport rolls a run report up into RunStats.
func StatsFromReport(r *awards.RunReport) RunStats {
	return RunStats{
		Partitions:          len(r.Partitions),
		SkippedPartitions:   len(r.SkippedPartitions()),
		TruncatedPartitions: len(r.TruncatedPartitions()),
		FailedChunks:        r.FailedChunks(),
		TotalReported:       r.TotalReported(),
		Rows:                len(r.Rows),
		Shortfall:           r.Shortfall(),
		ElapsedMs:           r.Elapsed.Milliseconds(),
	}
}

// PartitionStats converts report lines into storable rows.
func PartitionStats(runID string, r *awards.RunReport) []PartitionStat {
	out := make([]PartitionStat, len(r.Partitions))
	for i, p := range r.Partitions {
		out[i] = PartitionStat{
			RunID:         runID,
			FiscalYear:    p.Partition.FiscalYear,
			Month:         int(p.Partition.Month),
			TotalCount:    p.TotalCount,
			Retrieved:     p.Retrieved,
			ChunksPlanned: p.ChunksPlanned,
			ChunksIssued:  p.ChunksIssued,
			FailedChunks:  p.FailedChunks,
			Skipped:       p.Skipped,
			Truncated:     p.Truncated,
			Error:         p.Err,
		}
	}
	return out
}

// Nop discards everything. Used when the store driver is "none".
type Nop struct{}

func (Nop) StartRun(_ context.Context, fiscalYears []int) (*Run, error) {
	return &Run{FiscalYears: fiscalYears, Status: RunStatusRunning, StartedAt: time.Now().UTC()}, nil
}

func (Nop) CompleteRun(context.Context, string, RunStats) error { return nil }

func (Nop) FailRun(context.Context, string, string) error { return nil }

func (Nop) GetRun(_ context.Context, runID string) (*Run, error) {
	return nil, eris.Errorf("run not found: %s", runID)
}

func (Nop) ListRuns(context.Context, int) ([]Run, error) { return nil, nil }

func (Nop) SavePartitions(context.Context, string, []PartitionStat) error { return nil }

func (Nop) Migrate(context.Context) error { return nil }

func (Nop) Close() error { return nil }
