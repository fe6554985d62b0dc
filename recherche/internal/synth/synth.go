// CLAUDE:SUMMARY Synthesizer: backend chosen once at construction (ollama, transformers/extractive, none); failures yield nil analysis, never an error.
// Package synth produces the optional analysis of a research session.
//
// A Synthesizer is built once from Config and never re-resolves its backend.
// Summarize returns nil whenever the backend declines: no usable sources,
// endpoint unreachable, model missing, empty completion. Absence of an
// analysis is never an error.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// DefaultCharBudget is the default ceiling on concatenated source text sent
// to the local model.
const DefaultCharBudget = 6000

// Synthesizer summarizes the usable sources of a session.
type Synthesizer interface {
	Backend() store.Backend
	Summarize(ctx context.Context, query string, sources []store.ScrapedSource) *store.AnalysisResult
}

// OllamaConfig configures the local-model backend.
type OllamaConfig struct {
	// Endpoint is the server base URL. Default: $OLLAMA_HOST or http://localhost:11434.
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"` // Default: llama2.
	// API is "native" (/api/generate) or "openai" (OpenAI-compatible /v1). Default: native.
	API    string `yaml:"api"`
	APIKey string `yaml:"api_key"` // openai API only; local servers ignore it.
}

// Config configures New.
type Config struct {
	Backend    store.Backend `yaml:"backend"`     // Default: ollama.
	CharBudget int           `yaml:"char_budget"` // Default: DefaultCharBudget.
	// Timeout bounds one synthesis call. Default: 2m.
	Timeout time.Duration `yaml:"timeout"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	// MaxWords bounds the extractive summary. Default: 300.
	MaxWords int `yaml:"max_words"`
	// MinWords is the extractive summary length to aim for when the input
	// allows it. Default: 100.
	MinWords int `yaml:"min_words"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Backend == "" {
		c.Backend = store.BackendOllama
	}
	if c.CharBudget == 0 {
		c.CharBudget = DefaultCharBudget
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.Ollama.Endpoint == "" {
		c.Ollama.Endpoint = ollamaHost()
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama2"
	}
	if c.Ollama.API == "" {
		c.Ollama.API = APINative
	}
	if c.MaxWords <= 0 {
		c.MaxWords = 300
	}
	if c.MinWords <= 0 {
		c.MinWords = 100
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ollamaHost honours OLLAMA_HOST, which may omit the scheme or port.
func ollamaHost() string {
	h := strings.TrimSpace(os.Getenv("OLLAMA_HOST"))
	if h == "" {
		return "http://localhost:11434"
	}
	if !strings.Contains(h, "://") {
		h = "http://" + h
	}
	return strings.TrimRight(h, "/")
}

// New returns the Synthesizer for cfg.Backend.
func New(cfg Config) (Synthesizer, error) {
	cfg.defaults()
	if cfg.CharBudget < 0 {
		return nil, fmt.Errorf("synth: char budget must be positive, got %d", cfg.CharBudget)
	}
	switch cfg.Backend {
	case store.BackendOllama:
		return newOllama(cfg)
	case store.BackendTransformers:
		return newExtractive(cfg), nil
	case store.BackendNone:
		return None{}, nil
	}
	return nil, fmt.Errorf("synth: unknown backend %q", cfg.Backend)
}

// None never produces an analysis.
type None struct{}

func (None) Backend() store.Backend { return store.BackendNone }

func (None) Summarize(context.Context, string, []store.ScrapedSource) *store.AnalysisResult {
	return nil
}

// usable keeps the sources with non-empty text and a usable status.
func usable(sources []store.ScrapedSource) []store.ScrapedSource {
	var out []store.ScrapedSource
	for _, s := range sources {
		if s.FetchStatus.Usable() && strings.TrimSpace(s.Text) != "" {
			out = append(out, s)
		}
	}
	return out
}
