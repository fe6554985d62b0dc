// CLAUDE:SUMMARY Dedup key for search candidates: http(s) only, no credentials, default port, fragment, trailing slash or tracking params; sorted query.
// CLAUDE:EXPORTS NormalizeURL
package recherche

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
)

var errInvalidURL = errors.New("recherche: invalid URL")

// trackingParams are query keys engines and publishers append to result
// links. They never select a different page.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"msclkid": true,
	"ref_src": true,
}

func isTracking(key string) bool {
	k := strings.ToLower(key)
	return trackingParams[k] || strings.HasPrefix(k, "utm_")
}

// NormalizeURL returns the key two search hits share when they point at
// the same page. Only http and https links are accepted. http and https
// stay distinct.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", errInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", errInvalidURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing host", errInvalidURL)
	}
	switch port := u.Port(); {
	case port == "" || (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443"):
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
	default:
		host = net.JoinHostPort(host, port)
	}

	key := url.URL{
		Scheme: u.Scheme,
		Host:   host,
		Path:   strings.TrimRight(u.Path, "/"),
	}
	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if isTracking(k) {
				delete(q, k)
				continue
			}
			slices.Sort(q[k])
		}
		key.RawQuery = q.Encode() // Encode sorts by key.
	}
	return key.String(), nil
}

// dedupe drops candidates whose normalized URL was already seen, keeping
// the first (best-ranked) occurrence. Candidates keep their original rank.
func dedupe(in []Candidate) []Candidate {
	seen := make(map[string]bool, len(in))
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		key, err := NormalizeURL(c.URL)
		if err != nil {
			key = c.URL
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
