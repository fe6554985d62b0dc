// CLAUDE:SUMMARY Search provider abstraction: web/news modes, result capping, rank assignment, and markup stripping of titles and snippets.
// Package search turns a query into a ranked list of candidate sources.
//
// Providers:
//   - DuckDuckGo: HTML endpoint parsed with goquery, no key required.
//   - API engines: JSON APIs described by an Engine (Google Custom Search,
//     Brave Search), fetched through apifetch.
//   - Chain: tries providers in order and keeps the first non-empty answer.
//
// Retrying wraps any provider with the retry policy: one retry after a fixed
// backoff, then an empty result instead of an error.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// Mode selects general web results or news results.
type Mode string

const (
	ModeWeb  Mode = "web"
	ModeNews Mode = "news"
)

// MaxResultsCap bounds the number of results requested from any upstream.
const MaxResultsCap = 20

// ErrSearchUnavailable is returned when the upstream is unreachable or rate-limited.
var ErrSearchUnavailable = errors.New("search: upstream unavailable")

// ErrModeUnsupported is returned by providers that cannot serve a mode.
var ErrModeUnsupported = errors.New("search: mode not supported by provider")

// Provider returns up to maxResults ranked candidates for query.
// Fewer results (including none) is not an error.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int, mode Mode) ([]store.SearchCandidate, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, query string, maxResults int, mode Mode) ([]store.SearchCandidate, error)

func (f ProviderFunc) Search(ctx context.Context, query string, maxResults int, mode Mode) ([]store.SearchCandidate, error) {
	return f(ctx, query, maxResults, mode)
}

// ClampResults bounds n to [1, limit]; limit <= 0 means MaxResultsCap.
func ClampResults(n, limit int) int {
	if limit <= 0 {
		limit = MaxResultsCap
	}
	if n < 1 {
		return 1
	}
	if n > limit {
		return limit
	}
	return n
}

var textPolicy = bluemonday.StrictPolicy()

// cleanText strips markup and entities from upstream titles and snippets.
func cleanText(s string) string {
	s = textPolicy.Sanitize(s)
	s = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&quot;", `"`, "&lt;", "<", "&gt;", ">").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// rank drops entries without a URL, truncates to max and assigns zero-based
// ranks in list order.
func rank(in []store.SearchCandidate, max int) []store.SearchCandidate {
	out := make([]store.SearchCandidate, 0, len(in))
	for _, c := range in {
		if c.URL == "" {
			continue
		}
		if max > 0 && len(out) >= max {
			break
		}
		c.Rank = len(out)
		out = append(out, c)
	}
	return out
}
