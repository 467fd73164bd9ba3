// Package sink writes normalized award rows to files and databases.
package sink

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/awards-cli/internal/awards"
	"github.com/sells-group/awards-cli/internal/db"
)

// Sink consumes the full row collection of a run.
type Sink interface {
	Name() string
	Write(ctx context.Context, rows []awards.Row) error
}

// Target is what a file sink reports having written.
type Target interface {
	Path() string
}

// FileName builds "{prefix}_{years}_{YYYYMMDD}.{ext}". Multiple fiscal
// years are joined with "-".
func FileName(prefix string, fiscalYears []int, day time.Time, ext string) string {
	years := make([]string, len(fiscalYears))
	for i, fy := range fiscalYears {
		years[i] = strconv.Itoa(fy)
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, strings.Join(years, "-"), day.Format("20060102"), ext)
}

// Options selects and configures the sinks built by New.
type Options struct {
	Formats     []string
	Dir         string
	Prefix      string
	FiscalYears []int
	Day         time.Time
	Pool        db.Pool // required for "postgres"
	RunID       string
}

// New builds one sink per requested format.
func New(opts Options) ([]Sink, error) {
	sinks := make([]Sink, 0, len(opts.Formats))
	for _, f := range opts.Formats {
		path := filepath.Join(opts.Dir, FileName(opts.Prefix, opts.FiscalYears, opts.Day, f))
		switch f {
		case "csv":
			sinks = append(sinks, NewCSV(path))
		case "xlsx":
			sinks = append(sinks, NewXLSX(path))
		case "postgres":
			if opts.Pool == nil {
				return nil, eris.New("sink: postgres output needs store.driver postgres")
			}
			sinks = append(sinks, NewPostgres(opts.Pool, opts.RunID))
		default:
			return nil, eris.Errorf("sink: unknown format %q", f)
		}
	}
	return sinks, nil
}

// WriteAll hands rows to every sink concurrently. The first failure cancels
// the others and is returned.
func WriteAll(ctx context.Context, sinks []Sink, rows []awards.Row) error {
	log := zap.L().With(zap.String("component", "sink"))

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sinks {
		g.Go(func() error {
			start := time.Now()
			if err := s.Write(gctx, rows); err != nil {
				return eris.Wrapf(err, "sink: %s", s.Name())
			}
			fields := []zap.Field{
				zap.String("sink", s.Name()),
				zap.Int("rows", len(rows)),
				zap.Duration("elapsed", time.Since(start)),
			}
			if t, ok := s.(Target); ok {
				fields = append(fields, zap.String("path", t.Path()))
			}
			log.Info("rows written", fields...)
			return nil
		})
	}
	return g.Wait()
}
