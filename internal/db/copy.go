package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Table names a possibly schema-qualified relation.
type Table struct {
	Schema string
	Name   string
}

// ParseTable splits "schema.name" into a Table.
func ParseTable(s string) Table {
	if schema, name, ok := strings.Cut(s, "."); ok {
		return Table{Schema: schema, Name: name}
	}
	return Table{Name: s}
}

// Identifier returns the pgx identifier for the table.
func (t Table) Identifier() pgx.Identifier {
	if t.Schema == "" {
		return pgx.Identifier{t.Name}
	}
	return pgx.Identifier{t.Schema, t.Name}
}

// Sanitize returns the quoted SQL form of the table name.
func (t Table) Sanitize() string {
	return t.Identifier().Sanitize()
}

func (t Table) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// CopyFrom bulk-inserts rows using the COPY protocol. Empty input is a no-op.
func CopyFrom(ctx context.Context, pool Pool, table Table, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, table.Identifier(), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}
