// CLAUDE:SUMMARY Service configuration with defaults, validation into ErrInvalidConfiguration, and YAML loader.
package recherche

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/recherche/recherche/internal/fetch"
	"github.com/hazyhaar/recherche/recherche/internal/search"
	"github.com/hazyhaar/recherche/recherche/internal/store"
	"github.com/hazyhaar/recherche/recherche/internal/synth"
)

// Config configures the research service.
type Config struct {
	SearchTimeout        time.Duration `yaml:"search_timeout"`         // Default: 20s.
	FetchTimeout         time.Duration `yaml:"fetch_timeout"`          // per extractor attempt. Default: 10s.
	MaxConcurrentFetches int           `yaml:"max_concurrent_fetches"` // Default: 5.
	SynthBackend         string        `yaml:"synth_backend"`          // ollama, transformers, none. Default: ollama.
	SynthCharBudget      int           `yaml:"synth_char_budget"`      // Default: 6000.
	SynthTimeout         time.Duration `yaml:"synth_timeout"`          // Default: 2m.
	// SessionDeadline stops starting new fetches once exceeded. Started
	// fetches and synthesis are not cut short. 0 means none.
	SessionDeadline time.Duration `yaml:"session_deadline"`

	Retry  search.RetryPolicy `yaml:"retry"`
	Search search.Config      `yaml:"search"`
	Fetch  fetch.Config       `yaml:"fetch"`
	Ollama synth.OllamaConfig `yaml:"ollama"`

	// ArchivePath enables the SQLite session archive.
	ArchivePath string `yaml:"archive_path"`
	// ExportDir enables Markdown export of every session.
	ExportDir string `yaml:"export_dir"`
}

func (c *Config) defaults() {
	if c.SearchTimeout == 0 {
		c.SearchTimeout = 20 * time.Second
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MaxConcurrentFetches == 0 {
		c.MaxConcurrentFetches = 5
	}
	if c.SynthBackend == "" {
		c.SynthBackend = string(store.BackendOllama)
	}
	if c.SynthCharBudget == 0 {
		c.SynthCharBudget = synth.DefaultCharBudget
	}
	if c.SynthTimeout == 0 {
		c.SynthTimeout = 2 * time.Minute
	}
	if c.Search.Timeout == 0 {
		c.Search.Timeout = c.SearchTimeout
	}
	if c.Search.Retry == (search.RetryPolicy{}) {
		c.Search.Retry = c.Retry
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = c.FetchTimeout
	}
}

func (c *Config) validate() error {
	if _, err := store.ParseBackend(c.SynthBackend); err != nil {
		return fmt.Errorf("%w: synth_backend %q", ErrInvalidConfiguration, c.SynthBackend)
	}
	switch {
	case c.MaxConcurrentFetches <= 0:
		return fmt.Errorf("%w: max_concurrent_fetches must be positive", ErrInvalidConfiguration)
	case c.SynthCharBudget <= 0:
		return fmt.Errorf("%w: synth_char_budget must be positive", ErrInvalidConfiguration)
	case c.SearchTimeout < 0 || c.FetchTimeout < 0 || c.SessionDeadline < 0:
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfiguration)
	}
	return nil
}

// LoadConfigFile reads a YAML config file. Defaults are applied by New.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, path, err)
	}
	return cfg, nil
}
