package awards

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/awards-cli/pkg/reporter"
)

const (
	// DefaultOrganizationType is the RePORTER organization category queried.
	DefaultOrganizationType = "SCHOOLS OF MEDICINE"

	// DefaultSortField keeps page contents stable while the dataset changes.
	DefaultSortField = "project_start_date"
	DefaultSortOrder = "desc"

	// DefaultDelay is the pause between successful chunk requests.
	DefaultDelay = 500 * time.Millisecond
)

// FetchOptions configures partition retrieval.
type FetchOptions struct {
	OrganizationType string
	PageSize         int
	MaxOffset        int
	Delay            time.Duration
	SortField        string
	SortOrder        string
}

// DefaultFetchOptions returns the API ceilings and the medical-school filter.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		OrganizationType: DefaultOrganizationType,
		PageSize:         reporter.MaxLimit,
		MaxOffset:        reporter.MaxOffset,
		Delay:            DefaultDelay,
		SortField:        DefaultSortField,
		SortOrder:        DefaultSortOrder,
	}
}

// Validate rejects options the API cannot serve.
func (o FetchOptions) Validate() error {
	if o.OrganizationType == "" {
		return eris.New("awards: organization type is required")
	}
	if o.PageSize <= 0 || o.PageSize > reporter.MaxLimit {
		return eris.Errorf("awards: page size %d outside 1..%d", o.PageSize, reporter.MaxLimit)
	}
	if o.MaxOffset < 0 || o.MaxOffset > reporter.MaxOffset {
		return eris.Errorf("awards: max offset %d outside 0..%d", o.MaxOffset, reporter.MaxOffset)
	}
	if o.Delay < 0 {
		return eris.Errorf("awards: negative request delay %s", o.Delay)
	}
	return nil
}

// Window is the most records one partition can yield: every chunk whose
// offset stays within MaxOffset, at full page size.
func (o FetchOptions) Window() int {
	if o.PageSize <= 0 {
		return 0
	}
	return (o.MaxOffset/o.PageSize + 1) * o.PageSize
}

// ChunkFailure records one chunk request that failed and was skipped.
type ChunkFailure struct {
	Index  int
	Offset int
	Err    error
}

// PartitionResult is everything retrieved for one partition.
type PartitionResult struct {
	Partition     Partition
	TotalCount    int
	ChunksPlanned int
	ChunksIssued  int
	Awards        []reporter.Award
	Failures      []ChunkFailure

	// ProbeErr is set when the count probe failed and the partition was skipped.
	ProbeErr error

	// Truncated is set when chunk iteration stopped at the offset ceiling.
	Truncated bool
}

// Skipped reports whether the count probe failed.
func (r *PartitionResult) Skipped() bool { return r.ProbeErr != nil }

// Shortfall is the number of reported records that were not retrieved.
func (r *PartitionResult) Shortfall() int {
	if n := r.TotalCount - len(r.Awards); n > 0 {
		return n
	}
	return 0
}

// Fetcher walks one partition's offset window in fixed-size chunks.
type Fetcher struct {
	client reporter.Client
	opts   FetchOptions
	wait   func(ctx context.Context, d time.Duration) error
}

// NewFetcher validates opts and returns a Fetcher over client.
func NewFetcher(client reporter.Client, opts FetchOptions) (*Fetcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Fetcher{client: client, opts: opts, wait: sleep}, nil
}

// Options returns the fetch options in use.
func (f *Fetcher) Options() FetchOptions { return f.opts }

// Count issues the count probe for a partition.
func (f *Fetcher) Count(ctx context.Context, p Partition) (int, error) {
	resp, err := f.client.Search(ctx, f.request(p, 1, 0, false))
	if err != nil {
		return 0, err
	}
	return resp.Meta.Total, nil
}

// FetchPartition retrieves every record of p the offset window allows.
// Per-request failures are recorded on the result and never returned; the
// only error is context cancellation, returned with the partial result.
func (f *Fetcher) FetchPartition(ctx context.Context, p Partition) (*PartitionResult, error) {
	log := zap.L().With(
		zap.String("component", "awards.fetcher"),
		zap.String("partition", p.String()),
	)
	res := &PartitionResult{Partition: p}

	if err := ctx.Err(); err != nil {
		return res, eris.Wrapf(err, "awards: fetch %s", p)
	}

	total, err := f.Count(ctx, p)
	if err != nil {
		if ctx.Err() != nil {
			return res, eris.Wrapf(ctx.Err(), "awards: count %s", p)
		}
		res.ProbeErr = err
		log.Warn("count probe failed, skipping partition", zap.Error(err))
		return res, nil
	}
	res.TotalCount = total
	log.Info("partition total", zap.Int("total", total))

	if total == 0 {
		return res, nil
	}

	size := f.opts.PageSize
	res.ChunksPlanned = (total + size - 1) / size

	for chunk := range res.ChunksPlanned {
		offset := chunk * size
		if offset > f.opts.MaxOffset {
			res.Truncated = true
			log.Warn("offset ceiling reached, narrow the partition to retrieve the rest",
				zap.Int("chunk", chunk),
				zap.Int("offset", offset),
				zap.Int("max_offset", f.opts.MaxOffset),
			)
			break
		}
		if err := ctx.Err(); err != nil {
			return res, eris.Wrapf(err, "awards: fetch %s chunk %d", p, chunk)
		}

		res.ChunksIssued++
		resp, err := f.client.Search(ctx, f.request(p, size, offset, true))
		if err != nil {
			if ctx.Err() != nil {
				return res, eris.Wrapf(ctx.Err(), "awards: fetch %s chunk %d", p, chunk)
			}
			res.Failures = append(res.Failures, ChunkFailure{Index: chunk, Offset: offset, Err: err})
			log.Warn("chunk request failed, skipping",
				zap.Int("chunk", chunk),
				zap.Int("offset", offset),
				zap.Error(err),
			)
			continue
		}

		if len(resp.Results) == 0 {
			log.Debug("empty page, no more results", zap.Int("chunk", chunk), zap.Int("offset", offset))
			break
		}

		res.Awards = append(res.Awards, resp.Results...)
		log.Debug("chunk retrieved",
			zap.Int("chunk", chunk),
			zap.Int("offset", offset),
			zap.Int("count", len(resp.Results)),
			zap.Int("retrieved", len(res.Awards)),
		)

		next := chunk + 1
		if next < res.ChunksPlanned && next*size <= f.opts.MaxOffset {
			if err := f.wait(ctx, f.opts.Delay); err != nil {
				return res, eris.Wrapf(err, "awards: fetch %s", p)
			}
		}
	}

	if short := res.Shortfall(); short > 0 {
		log.Warn("partition shortfall",
			zap.Int("total", res.TotalCount),
			zap.Int("retrieved", len(res.Awards)),
			zap.Int("shortfall", short),
			zap.Bool("truncated", res.Truncated),
			zap.Int("failed_chunks", len(res.Failures)),
		)
	}

	return res, nil
}

// request builds a fresh search request for one unit of work.
func (f *Fetcher) request(p Partition, limit, offset int, sorted bool) reporter.SearchRequest {
	req := reporter.SearchRequest{
		Criteria: reporter.Criteria{
			FiscalYears:      []int{p.FiscalYear},
			OrganizationType: []string{f.opts.OrganizationType},
			AwardNoticeDate: &reporter.DateRange{
				FromDate: p.FromDate(),
				ToDate:   p.ToDate(),
			},
		},
		Limit:  limit,
		Offset: offset,
	}
	if sorted {
		req.SortField = f.opts.SortField
		req.SortOrder = f.opts.SortOrder
	}
	return req
}

// sleep waits d on a timer, returning early with ctx's error.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
