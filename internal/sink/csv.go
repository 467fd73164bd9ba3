package sink

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/awards-cli/internal/awards"
)

// CSV writes rows as a comma-separated file with a header line.
type CSV struct {
	path string
}

// NewCSV returns a CSV sink writing to path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Name() string { return "csv" }

func (c *CSV) Path() string { return c.path }

func (c *CSV) Write(ctx context.Context, rows []awards.Row) error {
	f, err := os.Create(c.path)
	if err != nil {
		return eris.Wrap(err, "csv: create file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(awards.Columns); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for i, r := range rows {
		if i%1000 == 0 && ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "csv: cancelled")
		}
		if err := w.Write(r.Values()); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	return eris.Wrap(f.Close(), "csv: close file")
}
