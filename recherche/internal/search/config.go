package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// Engine selection values for Config.Engine.
const (
	EngineAuto       = "auto"
	EngineGoogle     = "google"
	EngineDuckDuckGo = "duckduckgo"
	EngineBrave      = "brave"
)

// Environment variables consulted when the corresponding key is empty.
const (
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvGoogleCSEID  = "GOOGLE_CSE_ID"
	EnvBraveAPIKey  = "BRAVE_API_KEY"
)

// placeholderCSE marks the sample CSE id shipped in example configurations.
const placeholderCSE = "your_custom_search_engine_id"

// Config selects and configures the search stack.
type Config struct {
	Engine        string        `yaml:"engine"` // auto, google, duckduckgo, brave. Default: auto.
	GoogleAPIKey  string        `yaml:"google_api_key"`
	GoogleCSEID   string        `yaml:"google_cse_id"`
	BraveAPIKey   string        `yaml:"brave_api_key"`
	MaxResultsCap int           `yaml:"max_results_cap"` // Default: 20.
	Timeout       time.Duration `yaml:"timeout"`         // per search request. Default: 20s.
	UserAgent     string        `yaml:"user_agent"`
	// DuckDuckGoURL overrides the HTML endpoint.
	DuckDuckGoURL string      `yaml:"duckduckgo_url"`
	Retry         RetryPolicy `yaml:"retry"`
}

func (c *Config) defaults() {
	if c.Engine == "" {
		c.Engine = EngineAuto
	}
	if c.MaxResultsCap <= 0 || c.MaxResultsCap > MaxResultsCap {
		c.MaxResultsCap = MaxResultsCap
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.GoogleAPIKey == "" {
		c.GoogleAPIKey = os.Getenv(EnvGoogleAPIKey)
	}
	if c.GoogleCSEID == "" {
		c.GoogleCSEID = os.Getenv(EnvGoogleCSEID)
	}
	if c.BraveAPIKey == "" {
		c.BraveAPIKey = os.Getenv(EnvBraveAPIKey)
	}
	c.Retry.defaults()
}

// googleConfigured reports usable Google credentials. The sample CSE id
// counts as unconfigured.
func (c *Config) googleConfigured() bool {
	return c.GoogleAPIKey != "" && c.GoogleCSEID != "" && !strings.Contains(c.GoogleCSEID, placeholderCSE)
}

// New builds the configured provider stack:
//
//	Retrying -> NewsFallback -> Chain(google?, brave?, duckduckgo)
//
// With Engine "auto", Google and Brave join the chain only when their keys
// are present. Naming an engine explicitly requires its keys.
func New(cfg Config, logger *slog.Logger) (Provider, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	ddg := NewDuckDuckGo(cfg.DuckDuckGoURL, client, cfg.UserAgent)

	var providers []Provider
	switch cfg.Engine {
	case EngineAuto:
		if cfg.googleConfigured() {
			providers = append(providers, NewAPIProvider(GoogleEngine(cfg.GoogleAPIKey, cfg.GoogleCSEID), client))
		}
		if cfg.BraveAPIKey != "" {
			providers = append(providers, NewAPIProvider(BraveEngine(cfg.BraveAPIKey), client))
		}
		providers = append(providers, ddg)
	case EngineGoogle:
		if !cfg.googleConfigured() {
			return nil, fmt.Errorf("search: engine google requires %s and %s", EnvGoogleAPIKey, EnvGoogleCSEID)
		}
		// Google has no news vertical; DuckDuckGo covers it.
		providers = append(providers, NewAPIProvider(GoogleEngine(cfg.GoogleAPIKey, cfg.GoogleCSEID), client), ddg)
	case EngineBrave:
		if cfg.BraveAPIKey == "" {
			return nil, fmt.Errorf("search: engine brave requires %s", EnvBraveAPIKey)
		}
		providers = append(providers, NewAPIProvider(BraveEngine(cfg.BraveAPIKey), client))
	case EngineDuckDuckGo:
		providers = append(providers, ddg)
	default:
		return nil, fmt.Errorf("search: unknown engine %q", cfg.Engine)
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = fmt.Sprint(p)
	}
	logger.Debug("search: provider chain", "engines", names)

	var p Provider = NewsFallback{Provider: capped{NewChain(logger, providers...), cfg.MaxResultsCap}}
	return NewRetrying(p, cfg.Retry, logger), nil
}

// capped clamps maxResults before it reaches the upstream.
type capped struct {
	Provider
	limit int
}

func (c capped) Search(ctx context.Context, query string, maxResults int, mode Mode) ([]store.SearchCandidate, error) {
	return c.Provider.Search(ctx, query, ClampResults(maxResults, c.limit), mode)
}
