package main

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/awards-cli/internal/awards"
	"github.com/sells-group/awards-cli/internal/config"
	"github.com/sells-group/awards-cli/internal/resilience"
	"github.com/sells-group/awards-cli/internal/store"
	"github.com/sells-group/awards-cli/internal/transform"
	"github.com/sells-group/awards-cli/pkg/reporter"
)

// fetchOptions maps the reporter config section onto fetcher options.
func fetchOptions(rc config.ReporterConfig) awards.FetchOptions {
	return awards.FetchOptions{
		OrganizationType: rc.OrganizationType,
		PageSize:         rc.PageSize,
		MaxOffset:        rc.MaxOffset,
		Delay:            rc.RequestDelay(),
		SortField:        rc.SortField,
		SortOrder:        rc.SortOrder,
	}
}

// newClient builds the RePORTER client with the configured rate limit and
// retry policy.
func newClient(rc config.ReporterConfig) reporter.Client {
	c := reporter.NewClient(
		reporter.WithBaseURL(rc.BaseURL),
		reporter.WithUserAgent(rc.UserAgent),
		reporter.WithHTTPClient(&http.Client{Timeout: rc.Timeout()}),
		reporter.WithRateLimit(rc.RateLimitRPS),
	)
	policy := resilience.FromMillis(rc.Retry.MaxAttempts, rc.Retry.InitialBackoffMs, rc.Retry.MaxBackoffMs)
	return awards.WithRetry(c, policy)
}

// newFetcher builds the paginated fetcher from config.
func newFetcher(c *config.Config) (*awards.Fetcher, error) {
	f, err := awards.NewFetcher(newClient(c.Reporter), fetchOptions(c.Reporter))
	if err != nil {
		return nil, eris.Wrap(err, "build fetcher")
	}
	return f, nil
}

// newEngine builds the fetcher and transformer pair from config.
func newEngine(c *config.Config) (*awards.Engine, error) {
	f, err := newFetcher(c)
	if err != nil {
		return nil, err
	}
	rules, err := c.Rules.Resolve()
	if err != nil {
		return nil, err
	}
	t := awards.NewTransformer(transform.NewNameNormalizer(rules), c.Reporter.OrganizationType)
	return awards.NewEngine(f, t), nil
}

// initStore opens and migrates the configured run store.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// withOverrides returns a validated copy of c with any non-empty flag
// values swapped in.
func withOverrides(c *config.Config, fiscalYears []int, formats []string, dir string) (*config.Config, error) {
	out := *c
	if len(fiscalYears) > 0 {
		out.Reporter.FiscalYears = fiscalYears
	}
	if len(formats) > 0 {
		out.Output.Formats = formats
	}
	if dir != "" {
		out.Output.Dir = dir
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
