package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, eris.New("sqlite: database_url is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	fiscal_years TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	stats        TEXT,
	error        TEXT,
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS partition_stats (
	fiscal_year    INTEGER NOT NULL,
	month          INTEGER NOT NULL,
	run_id         TEXT NOT NULL REFERENCES runs(id),
	total_count    INTEGER NOT NULL DEFAULT 0,
	retrieved      INTEGER NOT NULL DEFAULT 0,
	chunks_planned INTEGER NOT NULL DEFAULT 0,
	chunks_issued  INTEGER NOT NULL DEFAULT 0,
	failed_chunks  INTEGER NOT NULL DEFAULT 0,
	skipped        INTEGER NOT NULL DEFAULT 0,
	truncated      INTEGER NOT NULL DEFAULT 0,
	error          TEXT,
	updated_at     DATETIME NOT NULL,
	PRIMARY KEY (fiscal_year, month)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_partition_stats_run_id ON partition_stats(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) StartRun(ctx context.Context, fiscalYears []int) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	yearsJSON, err := json.Marshal(fiscalYears)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal fiscal years")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, fiscal_years, status, started_at) VALUES (?, ?, ?, ?)`,
		id, string(yearsJSON), string(RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{
		ID:          id,
		FiscalYears: fiscalYears,
		Status:      RunStatusRunning,
		StartedAt:   now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, completed_at = ? WHERE id = ?`,
		string(RunStatusComplete), string(statsJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

const sqliteRunColumns = `id, fiscal_years, status, stats, error, started_at, completed_at`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`, runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// SavePartitions upserts the latest coverage for each fiscal-year month.
func (s *SQLiteStore) SavePartitions(ctx context.Context, runID string, stats []PartitionStat) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin partition tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO partition_stats (fiscal_year, month, run_id, total_count, retrieved,
			chunks_planned, chunks_issued, failed_chunks, skipped, truncated, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fiscal_year, month) DO UPDATE SET
			run_id = excluded.run_id,
			total_count = excluded.total_count,
			retrieved = excluded.retrieved,
			chunks_planned = excluded.chunks_planned,
			chunks_issued = excluded.chunks_issued,
			failed_chunks = excluded.failed_chunks,
			skipped = excluded.skipped,
			truncated = excluded.truncated,
			error = excluded.error,
			updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare partition upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range stats {
		if _, err := stmt.ExecContext(ctx,
			p.FiscalYear, p.Month, runID, p.TotalCount, p.Retrieved,
			p.ChunksPlanned, p.ChunksIssued, p.FailedChunks, p.Skipped, p.Truncated,
			nullString(p.Error), now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert partition %d-%02d", p.FiscalYear, p.Month)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit partition tx")
}

// PartitionStat returns the stored coverage for one fiscal-year month, or
// nil if the month was never fetched.
func (s *SQLiteStore) PartitionStat(ctx context.Context, fiscalYear, month int) (*PartitionStat, error) {
	var p PartitionStat
	var errMsg sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, fiscal_year, month, total_count, retrieved, chunks_planned,
			chunks_issued, failed_chunks, skipped, truncated, error
		FROM partition_stats WHERE fiscal_year = ? AND month = ?`,
		fiscalYear, month,
	).Scan(&p.RunID, &p.FiscalYear, &p.Month, &p.TotalCount, &p.Retrieved, &p.ChunksPlanned,
		&p.ChunksIssued, &p.FailedChunks, &p.Skipped, &p.Truncated, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get partition %d-%02d", fiscalYear, month)
	}
	p.Error = errMsg.String
	return &p, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var yearsJSON string
	var statsJSON, errMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&r.ID, &yearsJSON, &r.Status, &statsJSON, &errMsg, &r.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(yearsJSON), &r.FiscalYears); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal fiscal years")
	}
	if statsJSON.Valid {
		if err := json.Unmarshal([]byte(statsJSON.String), &r.Stats); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal stats")
		}
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	r.Error = errMsg.String
	return &r, nil
}
