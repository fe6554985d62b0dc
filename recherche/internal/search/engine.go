package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/recherche/recherche/internal/apifetch"
	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// Engine describes a JSON API search engine.
type Engine struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// URLTemplate is the web search URL; {query}, {count} and {start} are substituted.
	URLTemplate string `json:"url_template" yaml:"url_template"`
	// NewsURLTemplate serves ModeNews; empty means news is unsupported.
	NewsURLTemplate string          `json:"news_url_template" yaml:"news_url_template"`
	APIConfig       apifetch.Config `json:"api_config" yaml:"api_config"`
	NewsAPIConfig   apifetch.Config `json:"news_api_config" yaml:"news_api_config"`
	// PageSize is the most results one request returns; 0 means no paging.
	PageSize int `json:"page_size" yaml:"page_size"`
	// MaxPages caps paged requests per search.
	MaxPages int `json:"max_pages" yaml:"max_pages"`
	// StartBase is the index of the first result ({start}); Google counts from 1.
	StartBase int `json:"start_base" yaml:"start_base"`
}

// GoogleEngine returns a Google Custom Search engine. Credentials may be
// literal values or ${ENV_VAR} references.
func GoogleEngine(apiKey, cseID string) *Engine {
	return &Engine{
		ID:          "google",
		Name:        "Google Custom Search",
		URLTemplate: "https://www.googleapis.com/customsearch/v1?q={query}&num={count}&start={start}",
		APIConfig: apifetch.Config{
			Params:       map[string]string{"key": apiKey, "cx": cseID},
			ResultPath:   "items",
			Fields:       map[string]string{"url": "link"},
			AllowMissing: true,
		},
		PageSize:  10,
		MaxPages:  3,
		StartBase: 1,
	}
}

// BraveEngine returns a Brave Search engine.
func BraveEngine(apiKey string) *Engine {
	headers := map[string]string{"X-Subscription-Token": apiKey}
	return &Engine{
		ID:              "brave",
		Name:            "Brave Search",
		URLTemplate:     "https://api.search.brave.com/res/v1/web/search?q={query}&count={count}",
		NewsURLTemplate: "https://api.search.brave.com/res/v1/news/search?q={query}&count={count}",
		APIConfig: apifetch.Config{
			Headers:      headers,
			ResultPath:   "web.results",
			Fields:       map[string]string{"snippet": "description"},
			AllowMissing: true,
		},
		NewsAPIConfig: apifetch.Config{
			Headers:      headers,
			ResultPath:   "results",
			Fields:       map[string]string{"snippet": "description"},
			AllowMissing: true,
		},
		PageSize: 20,
		MaxPages: 1,
	}
}

// APIProvider runs searches against an Engine.
type APIProvider struct {
	engine *Engine
	client *http.Client
}

// NewAPIProvider returns a Provider for engine. client may be nil.
func NewAPIProvider(engine *Engine, client *http.Client) *APIProvider {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &APIProvider{engine: engine, client: client}
}

func (p *APIProvider) String() string { return p.engine.ID }

// Search pages through the engine until maxResults are collected, a page
// comes back short, or MaxPages is reached.
func (p *APIProvider) Search(ctx context.Context, query string, maxResults int, mode Mode) ([]store.SearchCandidate, error) {
	e := p.engine
	tmpl, cfg := e.URLTemplate, e.APIConfig
	if mode == ModeNews {
		if e.NewsURLTemplate == "" {
			return nil, ErrModeUnsupported
		}
		tmpl, cfg = e.NewsURLTemplate, e.NewsAPIConfig
	}

	pageSize := e.PageSize
	if pageSize <= 0 {
		pageSize = maxResults
	}
	maxPages := e.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	var out []store.SearchCandidate
	for page := 0; page < maxPages && len(out) < maxResults; page++ {
		count := min(pageSize, maxResults-len(out))
		searchURL := strings.NewReplacer(
			"{query}", url.QueryEscape(query),
			"{count}", strconv.Itoa(count),
			"{start}", strconv.Itoa(e.StartBase+len(out)),
		).Replace(tmpl)

		results, err := apifetch.Fetch(ctx, p.client, searchURL, cfg)
		if err != nil {
			if len(out) > 0 {
				break // keep the pages already collected
			}
			return nil, classify(e.ID, err)
		}
		for _, r := range results {
			out = append(out, store.SearchCandidate{
				Title:   cleanText(r.Title),
				URL:     r.URL,
				Snippet: cleanText(r.Snippet),
			})
		}
		if len(results) < count {
			break
		}
	}
	return rank(out, maxResults), nil
}

// classify maps transport failures and transient statuses to ErrSearchUnavailable.
func classify(engine string, err error) error {
	var se *apifetch.StatusError
	if errors.As(err, &se) && !se.Retryable() {
		return fmt.Errorf("search %s: %w", engine, err)
	}
	return fmt.Errorf("search %s: %w: %v", engine, ErrSearchUnavailable, err)
}
