package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// RetryPolicy is applied at the search boundary only.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts"` // total attempts including the first. Default: 2.
	Backoff     time.Duration `yaml:"backoff"`      // fixed delay between attempts. Default: 1s.
}

func (p *RetryPolicy) defaults() {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 2
	}
	if p.Backoff <= 0 {
		p.Backoff = time.Second
	}
}

// Retrying retries a failing provider with a fixed backoff and, once the
// attempts are exhausted, returns an empty result with a nil error so the
// session degrades to "no sources found".
type Retrying struct {
	next   Provider
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewRetrying wraps p with policy.
func NewRetrying(p Provider, policy RetryPolicy, logger *slog.Logger) *Retrying {
	policy.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{next: p, policy: policy, logger: logger, sleep: sleepCtx}
}

func (r *Retrying) Search(ctx context.Context, query string, maxResults int, mode Mode) ([]store.SearchCandidate, error) {
	for attempt := 1; ; attempt++ {
		results, err := r.next.Search(ctx, query, maxResults, mode)
		if err == nil {
			return results, nil
		}
		if attempt >= r.policy.MaxAttempts {
			r.logger.Warn("search: giving up, continuing without results",
				"query", query, "attempts", attempt, "error", err)
			return []store.SearchCandidate{}, nil
		}
		r.logger.Warn("search: attempt failed, retrying",
			"query", query, "attempt", attempt, "backoff", r.policy.Backoff, "error", err)
		if serr := r.sleep(ctx, r.policy.Backoff); serr != nil {
			r.logger.Warn("search: retry abandoned", "query", query, "error", serr)
			return []store.SearchCandidate{}, nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
