package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/recherche/horosafe"
	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// DefaultDuckDuckGoURL is the HTML (no-JavaScript) search endpoint.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	endpoint  string
	client    *http.Client
	userAgent string
}

// NewDuckDuckGo returns a DuckDuckGo provider. endpoint and client may be zero.
func NewDuckDuckGo(endpoint string, client *http.Client, userAgent string) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DefaultDuckDuckGoURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	}
	return &DuckDuckGo{endpoint: endpoint, client: client, userAgent: userAgent}
}

func (d *DuckDuckGo) String() string { return "duckduckgo" }

// Search fetches one result page. News mode uses the news vertical.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int, mode Mode) ([]store.SearchCandidate, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("search duckduckgo: endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	if mode == ModeNews {
		q.Set("iar", "news")
		q.Set("ia", "news")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("search duckduckgo: new request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search duckduckgo: %w: %v", ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	// 202 is DuckDuckGo's bot challenge; treat it like a rate limit.
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search duckduckgo: %w: http %d", ErrSearchUnavailable, resp.StatusCode)
	}

	body, err := horosafe.LimitedReadAll(resp.Body, 2<<20)
	if err != nil {
		return nil, fmt.Errorf("search duckduckgo: read body: %w", err)
	}
	return parseDuckDuckGo(string(body), maxResults)
}

// parseDuckDuckGo extracts results from the HTML endpoint markup.
// Sponsored results are skipped.
func parseDuckDuckGo(page string, maxResults int) ([]store.SearchCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("search duckduckgo: parse: %w", err)
	}

	var out []store.SearchCandidate
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := unwrapRedirect(href)
		if target == "" {
			return true
		}
		out = append(out, store.SearchCandidate{
			Title:   cleanText(link.Text()),
			URL:     target,
			Snippet: cleanText(s.Find(".result__snippet").First().Text()),
		})
		return len(out) < maxResults
	})
	return rank(out, maxResults), nil
}

// unwrapRedirect resolves DuckDuckGo's "/l/?uddg=" redirect links to the
// target URL. Non-http(s) targets yield "".
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			href = target
		}
	}
	if err := horosafe.ValidateScheme(href); err != nil {
		return ""
	}
	return href
}
