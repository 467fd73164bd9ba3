package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRunID = "3f2b8c1e-6a4d-4e0f-9b7a-2c5d8e1f0a93"

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func runColumns() []string {
	return []string{"id", "fiscal_years", "status", "started_at", "completed_at", "stats", "error"}
}

func TestPostgres_StartRun(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO nih_awards.sync_log").
		WithArgs(pgxmock.AnyArg(), []int{2024}, "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := st.StartRun(context.Background(), []int{2024})
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_StartRunError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO nih_awards.sync_log").
		WithArgs(pgxmock.AnyArg(), []int{2024}, "running", pgxmock.AnyArg()).
		WillReturnError(errors.New("relation does not exist"))

	_, err := st.StartRun(context.Background(), []int{2024})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: insert run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CompleteRun(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE nih_awards.sync_log").
		WithArgs("complete", pgxmock.AnyArg(), testRunID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.CompleteRun(context.Background(), testRunID, RunStats{Rows: 3}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CompleteRunNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE nih_awards.sync_log").
		WithArgs("complete", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.CompleteRun(context.Background(), "missing", RunStats{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found: missing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FailRun(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE nih_awards.sync_log").
		WithArgs("failed", "boom", testRunID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.FailRun(context.Background(), testRunID, "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRuns(t *testing.T) {
	st, mock := newMockStore(t)

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(time.Minute)
	noErr := ""
	failure := "context canceled"

	mock.ExpectQuery("SELECT (.+) FROM nih_awards.sync_log ORDER BY started_at DESC").
		WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows(runColumns()).
			AddRow("run-2", []int{2024}, "complete", started, &completed, []byte(`{"rows":3,"partitions":12}`), &noErr).
			AddRow(testRunID, []int{2023}, "failed", started, &completed, []byte{}, &failure))

	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, RunStatusComplete, runs[0].Status)
	assert.Equal(t, 3, runs[0].Stats.Rows)
	assert.Equal(t, 12, runs[0].Stats.Partitions)
	require.NotNil(t, runs[0].CompletedAt)
	assert.Equal(t, completed, *runs[0].CompletedAt)

	assert.Equal(t, RunStatusFailed, runs[1].Status)
	assert.Equal(t, "context canceled", runs[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRunNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM nih_awards.sync_log WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := st.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found: missing")
}

func TestPostgres_SavePartitions(t *testing.T) {
	st, mock := newMockStore(t)

	stats := PartitionStats(testRunID, sampleReport())

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_nih_awards_partition_stats"}, partitionStatsColumns).WillReturnResult(3)
	mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 3))
	mock.ExpectCommit()

	require.NoError(t, st.SavePartitions(context.Background(), testRunID, stats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SavePartitionsEmpty(t *testing.T) {
	st, mock := newMockStore(t)
	require.NoError(t, st.SavePartitions(context.Background(), testRunID, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SavePartitionsError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("conn closed"))

	err := st.SavePartitions(context.Background(), testRunID, PartitionStats(testRunID, sampleReport()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save partitions for run "+testRunID)
}

func TestPostgres_SavePartitionsBadRunID(t *testing.T) {
	st, mock := newMockStore(t)

	err := st.SavePartitions(context.Background(), "not-a-uuid", PartitionStats("x", sampleReport()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CloseWithoutOwner(t *testing.T) {
	st, _ := newMockStore(t)
	assert.NoError(t, st.Close())
	assert.NotNil(t, st.Pool())
}
