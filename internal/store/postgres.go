package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/awards-cli/internal/db"
)

// PostgresStore implements Store on the nih_awards schema.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

var _ Store = (*PostgresStore)(nil)

// partitionStatsTable is the bulk-upsert target for SavePartitions.
var partitionStatsTable = db.Table{Schema: Schema, Name: "partition_stats"}

var partitionStatsColumns = []string{
	"fiscal_year", "month", "run_id", "total_count", "retrieved",
	"chunks_planned", "chunks_issued", "failed_chunks", "skipped", "truncated",
	"error", "updated_at",
}

// NewPostgres connects to dsn and returns a PostgresStore that owns the pool.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open store")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Close is a no-op.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool exposes the connection pool so the postgres sink can share it.
func (s *PostgresStore) Pool() db.Pool { return s.pool }

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.pool)
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) StartRun(ctx context.Context, fiscalYears []int) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO nih_awards.sync_log (id, fiscal_years, status, started_at)
		 VALUES ($1, $2, $3, $4)`,
		id, fiscalYears, string(RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &Run{
		ID:          id,
		FiscalYears: fiscalYears,
		Status:      RunStatusRunning,
		StartedAt:   now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE nih_awards.sync_log
		 SET status = $1, stats = $2, completed_at = now()
		 WHERE id = $3`,
		string(RunStatusComplete), statsJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, msg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE nih_awards.sync_log
		 SET status = $1, error = $2, completed_at = now()
		 WHERE id = $3`,
		string(RunStatusFailed), msg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

const pgRunColumns = `id::text, fiscal_years, status, started_at, completed_at, stats, error`

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgRunColumns+` FROM nih_awards.sync_log WHERE id = $1`, runID,
	)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	return r, err
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgRunColumns+` FROM nih_awards.sync_log ORDER BY started_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SavePartitions upserts the latest coverage for each fiscal-year month.
func (s *PostgresStore) SavePartitions(ctx context.Context, runID string, stats []PartitionStat) error {
	if len(stats) == 0 {
		return nil
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return eris.Wrapf(err, "postgres: invalid run id %q", runID)
	}

	now := time.Now().UTC()
	rows := make([][]any, len(stats))
	for i, p := range stats {
		var errMsg *string
		if p.Error != "" {
			errMsg = &p.Error
		}
		rows[i] = []any{
			p.FiscalYear, int16(p.Month), id, p.TotalCount, p.Retrieved,
			p.ChunksPlanned, p.ChunksIssued, p.FailedChunks, p.Skipped, p.Truncated,
			errMsg, now,
		}
	}

	_, err = db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        partitionStatsTable,
		Columns:      partitionStatsColumns,
		ConflictKeys: []string{"fiscal_year", "month"},
	}, rows)
	return eris.Wrapf(err, "postgres: save partitions for run %s", runID)
}

func scanPgRun(row pgx.Row) (*Run, error) {
	var r Run
	var status string
	var completedAt *time.Time
	var statsJSON []byte
	var errMsg *string

	if err := row.Scan(&r.ID, &r.FiscalYears, &status, &r.StartedAt, &completedAt, &statsJSON, &errMsg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	r.Status = RunStatus(status)
	r.CompletedAt = completedAt
	if errMsg != nil {
		r.Error = *errMsg
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &r.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal stats")
		}
	}
	return &r, nil
}
