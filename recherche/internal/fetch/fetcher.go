// CLAUDE:SUMMARY HTTP page downloader with bounded redirects, body cap, content-type capture, and SSRF validation.
// Package fetch downloads web pages for extraction.
//
// Every request and every redirect hop is checked by a URL validator
// (horosafe.ValidateURL by default). Redirects are followed up to a fixed
// hop count. Bodies are capped at MaxBytes and truncated silently beyond it.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hazyhaar/recherche/horosafe"
)

// ErrNotHTML is returned when the response is not an HTML document.
var ErrNotHTML = errors.New("fetch: content is not HTML")

// ErrTooManyRedirects is returned when the redirect hop limit is exceeded.
var ErrTooManyRedirects = errors.New("fetch: too many redirects")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: http %d", e.Code)
}

// Page is a downloaded document.
type Page struct {
	URL         string // requested URL
	FinalURL    string // URL after redirects
	StatusCode  int
	ContentType string // media type without parameters
	Body        []byte
}

// Config configures the fetcher.
type Config struct {
	Timeout      time.Duration `yaml:"timeout"`       // HTTP timeout. Default: 10s.
	MaxBytes     int64         `yaml:"max_bytes"`     // Max response body size. Default: 5 MiB.
	MaxRedirects int           `yaml:"max_redirects"` // Redirect hop limit. Default: 5.
	UserAgent    string        `yaml:"user_agent"`
	// AllowPrivate disables private address blocking (scheme checks remain).
	AllowPrivate bool `yaml:"allow_private"`
	// URLValidator validates URLs before fetch and on every redirect.
	// Default: horosafe.ValidateURL, or horosafe.ValidateScheme with AllowPrivate.
	URLValidator func(string) error `yaml:"-"`
}

// DefaultUserAgent mimics a desktop browser; many sites refuse bare clients.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = horosafe.MaxResponseBody
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 5
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.URLValidator == nil {
		if c.AllowPrivate {
			c.URLValidator = horosafe.ValidateScheme
		} else {
			c.URLValidator = horosafe.ValidateURL
		}
	}
}

// Fetcher performs page downloads.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher with SSRF protection on redirects.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	validate := cfg.URLValidator
	maxHops := cfg.MaxRedirects
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxHops {
					return fmt.Errorf("%w (%d)", ErrTooManyRedirects, len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked (SSRF): %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Timeout returns the per-request timeout.
func (f *Fetcher) Timeout() time.Duration { return f.config.Timeout }

// Fetch downloads rawURL. Non-2xx responses yield a *StatusError.
// The content type is reported but not enforced; see RequireHTML.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := f.config.URLValidator(rawURL); err != nil {
		return nil, fmt.Errorf("URL blocked (SSRF): %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: mediaType(resp.Header.Get("Content-Type"), body),
		Body:        body,
	}, nil
}

// RequireHTML returns ErrNotHTML unless the page is an HTML document.
func (p *Page) RequireHTML() error {
	switch p.ContentType {
	case "text/html", "application/xhtml+xml":
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotHTML, p.ContentType)
}

// mediaType parses the Content-Type header, sniffing the body when absent.
func mediaType(header string, body []byte) string {
	if header == "" {
		header = http.DetectContentType(body)
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(header, ";", 2)[0]))
	}
	return mt
}
