package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// Chain tries providers in order and returns the first non-empty result.
// Providers that fail or return nothing are skipped. If every provider
// fails, the joined error wraps ErrSearchUnavailable.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain returns a Chain over providers.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, logger: logger}
}

func (c *Chain) Search(ctx context.Context, query string, maxResults int, mode Mode) ([]store.SearchCandidate, error) {
	var errs []error
	for _, p := range c.providers {
		results, err := p.Search(ctx, query, maxResults, mode)
		if err != nil {
			if !errors.Is(err, ErrModeUnsupported) {
				c.logger.Warn("search: provider failed, trying next", "provider", fmt.Sprint(p), "error", err)
				errs = append(errs, err)
			}
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if len(errs) == len(c.providers) && len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrSearchUnavailable, errors.Join(errs...))
	}
	return nil, nil
}

// NewsFallback runs a web search for "<query> news" when a news search
// returns nothing.
type NewsFallback struct {
	Provider
}

func (n NewsFallback) Search(ctx context.Context, query string, maxResults int, mode Mode) ([]store.SearchCandidate, error) {
	results, err := n.Provider.Search(ctx, query, maxResults, mode)
	if mode != ModeNews || len(results) > 0 {
		return results, err
	}
	fallback, ferr := n.Provider.Search(ctx, query+" news", maxResults, ModeWeb)
	if ferr != nil {
		if err != nil {
			return nil, err
		}
		return nil, ferr
	}
	return fallback, nil
}
