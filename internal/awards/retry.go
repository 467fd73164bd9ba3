package awards

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/awards-cli/internal/resilience"
	"github.com/sells-group/awards-cli/pkg/reporter"
)

type retryClient struct {
	next   reporter.Client
	policy resilience.Policy
}

// WithRetry decorates a client so transient failures are retried under
// policy before the fetcher sees them. A single-attempt policy returns c.
func WithRetry(c reporter.Client, policy resilience.Policy) reporter.Client {
	if policy.MaxAttempts <= 1 {
		return c
	}
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, err error) {
			zap.L().Warn("retrying search request",
				zap.String("component", "awards.retry"),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
	}
	return &retryClient{next: c, policy: policy}
}

func (r *retryClient) Search(ctx context.Context, req reporter.SearchRequest) (*reporter.SearchResponse, error) {
	return resilience.Do(ctx, r.policy, func(ctx context.Context) (*reporter.SearchResponse, error) {
		return r.next.Search(ctx, req)
	})
}
