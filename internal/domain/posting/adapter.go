package posting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/pkg/retry"
)

// Page is one normalized page of provider results
type Page struct {
	Postings []domain.Posting
	// Full is true when the provider returned a complete page (more may follow)
	Full bool
}

// Adapter fetches and normalizes a single provider's postings page by page.
// Implementations must be stateless: a call depends only on its arguments.
type Adapter interface {
	// Source is the tag written to every posting this adapter produces
	Source() domain.Source

	// PageSize is the provider's fixed page size; shorter pages signal exhaustion
	PageSize() int

	// FetchPage returns page number page (1-based). Errors wrap ErrRateLimited,
	// ErrClient, ErrTransport or ErrNotConfigured.
	FetchPage(ctx context.Context, query, location string, page int) (Page, error)
}

// RateLimitAction decides what a 429 does to a source's paging
type RateLimitAction string

const (
	// RateLimitAbort treats the source as exhausted
	RateLimitAbort RateLimitAction = "abort"
	// RateLimitRetry waits Backoff and retries the same page
	RateLimitRetry RateLimitAction = "retry"
)

// ParseRateLimitAction accepts "abort" or "retry" (also "wait-and-retry")
func ParseRateLimitAction(s string) (RateLimitAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort", "":
		return RateLimitAbort, nil
	case "retry", "wait-and-retry":
		return RateLimitRetry, nil
	default:
		return "", fmt.Errorf("unknown rate limit policy %q", s)
	}
}

// RetryPolicy is the explicit, finite rate-limit policy every source declares
type RetryPolicy struct {
	OnRateLimit RateLimitAction
	MaxAttempts int
	Backoff     time.Duration
}

// AbortPolicy stops paging on the first rate limit
func AbortPolicy() RetryPolicy {
	return RetryPolicy{OnRateLimit: RateLimitAbort, MaxAttempts: 1}
}

// WaitAndRetryPolicy retries rate-limited pages up to maxAttempts times in total
func WaitAndRetryPolicy(maxAttempts int, backoff time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{OnRateLimit: RateLimitRetry, MaxAttempts: maxAttempts, Backoff: backoff}
}

// retryConfig converts the policy to the generic helper's config.
// Only ErrRateLimited is ever retried; client and transport errors are terminal.
func (p RetryPolicy) retryConfig() retry.Config {
	if p.OnRateLimit != RateLimitRetry || p.MaxAttempts <= 1 {
		return retry.Fixed(1, 0, retry.Never)
	}
	return retry.Fixed(p.MaxAttempts, p.Backoff, retry.On(ErrRateLimited))
}

// SourceConfig binds an adapter to its paging and retry settings
type SourceConfig struct {
	Adapter   Adapter
	Policy    RetryPolicy
	PageDelay time.Duration
	// MaxPages caps requests per run; zero derives ceil(quota/pageSize)
	MaxPages int
	// Weight is used by the weighted quota split
	Weight float64
}

func (s SourceConfig) name() domain.Source {
	if s.Adapter == nil {
		return ""
	}
	return s.Adapter.Source()
}
