// CLAUDE:SUMMARY Calls a JSON search API and maps the hits at a dot path to title/snippet/url results.
// Package apifetch queries JSON search APIs described by a Config.
//
// A Config names the request headers and query parameters (values may
// reference ${ENV_VAR}), the dot path of the hit array in the response, and
// the dot path of each result field inside a hit. Google Custom Search and
// Brave Search are both expressed this way.
package apifetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/hazyhaar/recherche/horosafe"
)

// MaxBody caps API responses.
const MaxBody int64 = 4 << 20

// Config describes one API call.
type Config struct {
	Headers map[string]string `json:"headers" yaml:"headers"`
	Params  map[string]string `json:"params" yaml:"params"`
	// ResultPath locates the hit array, e.g. "web.results". Empty: the root.
	ResultPath string `json:"result_path" yaml:"result_path"`
	// Fields maps "title", "snippet" and "url" to dot paths inside a hit.
	// Unmapped fields are read from the key of the same name.
	Fields map[string]string `json:"fields" yaml:"fields"`
	// AllowMissing reads an absent ResultPath as zero hits. Google omits
	// "items" when nothing matches.
	AllowMissing bool `json:"allow_missing" yaml:"allow_missing"`
}

// Result is one hit.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// StatusError is a non-2xx API response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "apifetch: http " + strconv.Itoa(e.Code)
}

// Retryable reports rate limiting and server-side failures.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

var errMissing = errors.New("missing key")

// Fetch performs a GET on endpoint with cfg applied and returns the hits.
// Hits that are not JSON objects are skipped.
func Fetch(ctx context.Context, client *http.Client, endpoint string, cfg Config) ([]Result, error) {
	req, err := newRequest(ctx, endpoint, cfg)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apifetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	body, err := horosafe.LimitedReadAll(resp.Body, MaxBody)
	if err != nil {
		return nil, fmt.Errorf("apifetch: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("apifetch: decode: %w", err)
	}
	hits, err := hitsAt(doc, cfg.ResultPath)
	switch {
	case errors.Is(err, errMissing) && cfg.AllowMissing:
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("apifetch: result path %q: %w", cfg.ResultPath, err)
	}

	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		if _, ok := h.(map[string]any); !ok {
			continue
		}
		out = append(out, Result{
			Title:   field(h, cfg.Fields, "title"),
			Snippet: field(h, cfg.Fields, "snippet"),
			URL:     field(h, cfg.Fields, "url"),
		})
	}
	return out, nil
}

func newRequest(ctx context.Context, endpoint string, cfg Config) (*http.Request, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("apifetch: endpoint: %w", err)
	}
	if len(cfg.Params) > 0 {
		q := u.Query()
		for k, v := range cfg.Params {
			q.Set(k, os.ExpandEnv(v))
		}
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("apifetch: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		req.Header.Set(k, os.ExpandEnv(v))
	}
	return req, nil
}

// hitsAt returns the array found at path.
func hitsAt(doc any, path string) ([]any, error) {
	v, err := lookup(doc, path)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("not an array but %T", v)
	}
	return arr, nil
}

// lookup follows a dot path through nested objects. An empty path is v.
func lookup(v any, path string) (any, error) {
	for rest := path; rest != ""; {
		var key string
		key, rest, _ = strings.Cut(rest, ".")
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%q: not an object but %T", key, v)
		}
		if v, ok = obj[key]; !ok {
			return nil, fmt.Errorf("%w %q", errMissing, key)
		}
	}
	return v, nil
}

// field reads the named result field of hit as a string.
func field(hit any, fields map[string]string, name string) string {
	path, ok := fields[name]
	if !ok {
		path = name
	}
	v, err := lookup(hit, path)
	if err != nil || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
