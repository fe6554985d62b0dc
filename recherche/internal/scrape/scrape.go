// CLAUDE:SUMMARY SourceFetcher: download a candidate, extract with Article then Plain under separate timeouts, encode every failure as a FAILED source.
// Package scrape turns search candidates into scraped sources.
//
// Fetch never returns an error. Each candidate goes through:
//
//	download -> extract.Article (primary) -> extract.Plain (fallback) -> FAILED
//
// Each extractor runs under its own timeout. The fallback reuses the body
// downloaded for the primary attempt when there is one, and downloads again
// otherwise. Text is truncated to MaxTextChars runes.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/recherche/extract"
	"github.com/hazyhaar/recherche/horosafe"
	"github.com/hazyhaar/recherche/recherche/internal/fetch"
	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// MaxTextChars is the text budget of one source, in runes. Longer text is
// cut at exactly this many runes.
const MaxTextChars = 10000

// Config configures a Fetcher.
type Config struct {
	Fetch fetch.Config `yaml:"fetch"`
	// Format is the primary extractor output. Default: plain text.
	Format extract.Format `yaml:"format"`
}

// Fetcher is the SourceFetcher.
type Fetcher struct {
	pages   *fetch.Fetcher
	timeout time.Duration
	format  extract.Format
	logger  *slog.Logger
}

// New creates a Fetcher.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Format == "" {
		cfg.Format = extract.FormatText
	}
	pages := fetch.New(cfg.Fetch)
	return &Fetcher{
		pages:   pages,
		timeout: pages.Timeout(),
		format:  cfg.Format,
		logger:  logger,
	}
}

// Fetch downloads and extracts c. Every failure is encoded in the returned
// source.
func (f *Fetcher) Fetch(ctx context.Context, c store.SearchCandidate) (src store.ScrapedSource) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("scrape: panic", "url", c.URL, "panic", r)
			src = failed(c, fmt.Errorf("scrape: panic: %v", r))
		}
	}()

	// Primary.
	page, res, primaryErr := f.primary(ctx, c.URL)
	if primaryErr == nil {
		return f.finish(c, res, store.StatusOK, store.ExtractorPrimary)
	}
	if final(primaryErr) {
		f.logger.Warn("scrape: fetch failed", "url", c.URL, "error", primaryErr)
		return failed(c, primaryErr)
	}
	f.logger.Debug("scrape: primary extraction failed, trying fallback", "url", c.URL, "error", primaryErr)

	// Fallback.
	res, fallbackErr := f.fallback(ctx, c.URL, page)
	if fallbackErr != nil {
		err := fmt.Errorf("primary: %v; fallback: %w", primaryErr, fallbackErr)
		f.logger.Warn("scrape: fetch failed", "url", c.URL, "error", err)
		return failed(c, err)
	}
	status := store.StatusOK
	if utf8.RuneCountInString(res.Text) < extract.MinContentChars {
		status = store.StatusPartial
	}
	return f.finish(c, res, status, store.ExtractorFallback)
}

// primary downloads the page and runs Article on it. The page is returned
// whenever the download succeeded so that the fallback can reuse it.
func (f *Fetcher) primary(ctx context.Context, rawURL string) (*fetch.Page, *extract.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.download(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	res, err := bounded(ctx, func() (*extract.Result, error) {
		return extract.Article(page.Body, extract.Options{PageURL: page.FinalURL, Format: f.format})
	})
	if err != nil {
		return page, nil, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return page, nil, extract.ErrInsufficientContent
	}
	return page, res, nil
}

func (f *Fetcher) fallback(ctx context.Context, rawURL string, page *fetch.Page) (*extract.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if page == nil {
		var err error
		if page, err = f.download(ctx, rawURL); err != nil {
			return nil, err
		}
	}
	return bounded(ctx, func() (*extract.Result, error) {
		return extract.Plain(page.Body, extract.Options{PageURL: page.FinalURL})
	})
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (*fetch.Page, error) {
	page, err := f.pages.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := page.RequireHTML(); err != nil {
		return nil, err
	}
	return page, nil
}

// bounded runs fn and gives up when ctx expires. fn keeps running to
// completion in the background; extractors are pure and always terminate.
func bounded(ctx context.Context, fn func() (*extract.Result, error)) (*extract.Result, error) {
	type outcome struct {
		res *extract.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("scrape: extractor panic: %v", r)}
			}
		}()
		res, err := fn()
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("scrape: extraction: %w", ctx.Err())
	}
}

// final reports failures that a second extraction attempt cannot fix:
// non-HTML content, blocked URLs and definitive client errors.
func final(err error) bool {
	if errors.Is(err, fetch.ErrNotHTML) || errors.Is(err, fetch.ErrTooManyRedirects) ||
		errors.Is(err, horosafe.ErrSSRF) || errors.Is(err, horosafe.ErrUnsafeScheme) {
		return true
	}
	var se *fetch.StatusError
	if errors.As(err, &se) {
		return se.Code >= 400 && se.Code < 500 &&
			se.Code != http.StatusRequestTimeout && se.Code != http.StatusTooManyRequests
	}
	return false
}

func (f *Fetcher) finish(c store.SearchCandidate, res *extract.Result, status store.FetchStatus, ex store.Extractor) store.ScrapedSource {
	title := res.Title
	if title == "" {
		title = c.Title
	}
	return store.ScrapedSource{
		URL:           c.URL,
		Title:         title,
		Text:          Truncate(res.Text, MaxTextChars),
		FetchStatus:   status,
		ExtractorUsed: ex,
		Authors:       res.Authors,
		PublishDate:   res.PublishDate,
		SiteName:      res.SiteName,
		Description:   res.Description,
	}
}

func failed(c store.SearchCandidate, err error) store.ScrapedSource {
	return store.ScrapedSource{
		URL:           c.URL,
		Title:         c.Title,
		FetchStatus:   store.StatusFailed,
		ExtractorUsed: store.ExtractorNone,
		Error:         err.Error(),
	}
}

// Truncate returns the first max runes of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
