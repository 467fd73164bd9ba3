package sink

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/awards-cli/internal/awards"
	"github.com/sells-group/awards-cli/internal/db"
)

// AwardRowsTable receives rows from the postgres sink.
var AwardRowsTable = db.Table{Schema: "nih_awards", Name: "award_rows"}

// PostgresColumns are the award_rows columns in COPY order: run_id, then
// one column per awards.Columns entry.
var PostgresColumns = postgresColumns()

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)

// columnName turns "ORGANIZATION ID (IPF)" into "organization_id".
func columnName(header string) string {
	s := parenthetical.ReplaceAllString(header, "")
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

func postgresColumns() []string {
	cols := make([]string, 0, len(awards.Columns)+1)
	cols = append(cols, "run_id")
	for _, c := range awards.Columns {
		cols = append(cols, columnName(c))
	}
	return cols
}

// Postgres appends rows to nih_awards.award_rows with COPY.
type Postgres struct {
	pool  db.Pool
	runID string
}

// NewPostgres returns a sink tagging every row with runID.
func NewPostgres(pool db.Pool, runID string) *Postgres {
	return &Postgres{pool: pool, runID: runID}
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Write(ctx context.Context, rows []awards.Row) error {
	runID, err := uuid.Parse(p.runID)
	if err != nil {
		return eris.Wrapf(err, "postgres sink: invalid run id %q", p.runID)
	}

	data := make([][]any, len(rows))
	for i, r := range rows {
		vals := r.Values()
		rec := make([]any, 0, len(vals)+1)
		rec = append(rec, runID)
		for _, v := range vals {
			rec = append(rec, v)
		}
		data[i] = rec
	}

	n, err := db.CopyFrom(ctx, p.pool, AwardRowsTable, PostgresColumns, data)
	if err != nil {
		return err
	}
	if int(n) != len(rows) {
		return eris.Errorf("postgres sink: copied %d of %d rows", n, len(rows))
	}
	return nil
}
