// CLAUDE:SUMMARY Research service: depth state machine, bounded fetch pool with rank-ordered results, pagination, progress, history/archive/export hooks.
package recherche

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/recherche/recherche/internal/archive"
	"github.com/hazyhaar/recherche/recherche/internal/buffer"
	"github.com/hazyhaar/recherche/recherche/internal/scrape"
	"github.com/hazyhaar/recherche/recherche/internal/search"
	"github.com/hazyhaar/recherche/recherche/internal/store"
	"github.com/hazyhaar/recherche/recherche/internal/synth"
)

// NoResultsNote is recorded on sessions whose search came back empty.
const NoResultsNote = "No search results found"

// SourceFetcher turns a candidate into a source. It never fails; every
// failure is encoded in the returned source.
type SourceFetcher interface {
	Fetch(ctx context.Context, c Candidate) Source
}

// Service is the research orchestrator.
type Service struct {
	config  *Config
	logger  *slog.Logger
	search  search.Provider
	fetcher SourceFetcher
	synth   synth.Synthesizer
	history *store.SessionStore
	archive *archive.Archive // optional
	export  *buffer.Writer   // optional
	now     func() time.Time
}

// Option configures a Service during creation.
type Option func(*Service)

// WithSearchProvider replaces the configured engines. The provider is still
// wrapped in the configured retry policy.
func WithSearchProvider(p SearchProvider) Option {
	return func(svc *Service) { svc.search = p }
}

// WithSourceFetcher replaces the default SourceFetcher.
func WithSourceFetcher(f SourceFetcher) Option {
	return func(svc *Service) { svc.fetcher = f }
}

// WithSynthesizer replaces the configured synthesis backend.
func WithSynthesizer(s Synthesizer) Option {
	return func(svc *Service) { svc.synth = s }
}

// WithArchive sets the session archive, overriding archive_path.
func WithArchive(a *archive.Archive) Option {
	return func(svc *Service) { svc.archive = a }
}

// WithClock overrides time.Now for session timestamps and save paths.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// New creates a research Service. Configuration errors wrap
// ErrInvalidConfiguration.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	svc := &Service{
		config:  cfg,
		logger:  logger,
		history: store.NewSessionStore(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	if svc.search == nil {
		p, err := search.New(cfg.Search, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		svc.search = p
	} else {
		svc.search = search.NewRetrying(svc.search, cfg.Search.Retry, logger)
	}
	if svc.fetcher == nil {
		svc.fetcher = scrape.New(scrape.Config{Fetch: cfg.Fetch}, logger)
	}
	if svc.synth == nil {
		backend, _ := store.ParseBackend(cfg.SynthBackend)
		s, err := synth.New(synth.Config{
			Backend:    backend,
			CharBudget: cfg.SynthCharBudget,
			Timeout:    cfg.SynthTimeout,
			Ollama:     cfg.Ollama,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		svc.synth = s
	}
	if svc.archive == nil && cfg.ArchivePath != "" {
		a, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("recherche: %w", err)
		}
		svc.archive = a
	}
	if cfg.ExportDir != "" {
		svc.export = buffer.NewWriter(cfg.ExportDir)
	}
	return svc, nil
}

// Close releases the archive, if any.
func (svc *Service) Close() error {
	if svc.archive != nil {
		return svc.archive.Close()
	}
	return nil
}

// Backend returns the synthesis backend chosen at construction.
func (svc *Service) Backend() Backend { return svc.synth.Backend() }

// ResearchOptions are the optional parameters of Research.
type ResearchOptions struct {
	// News searches the news vertical instead of the general web.
	News bool
	// Page is the zero-based page of search results to fetch.
	Page int
	// PerPage is the page size. Default: maxSources.
	PerPage int
	// Progress receives stage messages. Calls are serialized.
	Progress func(string)
}

// ResearchOption sets a ResearchOptions field.
type ResearchOption func(*ResearchOptions)

// WithNews selects the news search mode.
func WithNews() ResearchOption {
	return func(o *ResearchOptions) { o.News = true }
}

// WithPage selects a page of results. perPage <= 0 keeps the default.
func WithPage(page, perPage int) ResearchOption {
	return func(o *ResearchOptions) { o.Page, o.PerPage = page, perPage }
}

// WithProgress registers a progress callback.
func WithProgress(fn func(string)) ResearchOption {
	return func(o *ResearchOptions) { o.Progress = fn }
}

// Research runs one session. It fails only with ErrInvalidQuery or
// ErrInvalidConfiguration; every upstream failure is recorded in the
// returned session, which is also appended to the history.
func (svc *Service) Research(ctx context.Context, query string, depth Depth, maxSources int, opts ...ResearchOption) (*Session, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}
	if depth == "" {
		depth = DepthStandard
	}
	if _, err := store.ParseDepth(string(depth)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if depth.Fetches() && maxSources <= 0 {
		return nil, fmt.Errorf("%w: max_sources must be positive for depth %s", ErrInvalidConfiguration, depth)
	}

	var o ResearchOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.Page < 0 {
		o.Page = 0
	}
	if o.PerPage <= 0 {
		o.PerPage = maxSources
	}
	if o.PerPage <= 0 {
		o.PerPage = 5
	}
	progress := serialize(o.Progress)

	sess := &Session{
		Query:         query,
		Timestamp:     svc.now(),
		Depth:         depth,
		SearchResults: []Candidate{},
		Sources:       []Source{},
		Page:          o.Page,
	}
	if svc.config.SessionDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.config.SessionDeadline)
		defer cancel()
	}
	log := svc.logger.With("query", query, "depth", depth)

	// Search.
	mode := search.ModeWeb
	if o.News {
		mode = search.ModeNews
		progress("Searching the news...")
	} else {
		progress("Searching the web...")
	}
	start := o.Page * o.PerPage
	want := max(o.PerPage*(o.Page+2), o.PerPage*3)
	all := svc.runSearch(ctx, log, query, want, mode)
	if start < len(all) {
		sess.SearchResults = all[start:min(start+o.PerPage, len(all))]
	}
	sess.HasMore = len(all) > start+o.PerPage
	log.Info("recherche: search done", "candidates", len(all), "page_results", len(sess.SearchResults))

	if len(sess.SearchResults) == 0 {
		sess.Error = NoResultsNote
		svc.record(ctx, log, sess)
		return sess, nil
	}

	// Fetch.
	if depth.Fetches() {
		sess.Sources = svc.fetchAll(ctx, log, sess.SearchResults[:min(maxSources, len(sess.SearchResults))], progress)
	}

	// Synthesis.
	if depth == DepthDeep {
		progress(fmt.Sprintf("Analyzing with %s...", svc.synth.Backend()))
		// The session deadline only gates fetching; synthesis has its own timeout.
		sess.Analysis = svc.synth.Summarize(context.WithoutCancel(ctx), query, sess.UsableSources())
		log.Info("recherche: synthesis done", "backend", svc.synth.Backend(), "analysis", sess.Analysis != nil)
	}

	svc.record(ctx, log, sess)
	return sess, nil
}

// runSearch calls the provider, deduplicates by normalized URL and keeps
// the result in rank order. Provider errors degrade to no results.
func (svc *Service) runSearch(ctx context.Context, log *slog.Logger, query string, n int, mode search.Mode) []Candidate {
	results, err := svc.search.Search(ctx, query, n, mode)
	if err != nil {
		log.Warn("recherche: search failed, continuing without results", "error", err)
		return nil
	}
	return dedupe(results)
}

// fetchAll fetches candidates on a bounded pool. Sources come back in
// candidate order whatever the completion order. Once ctx is done, fetches
// not yet started are skipped; started ones run to completion.
func (svc *Service) fetchAll(ctx context.Context, log *slog.Logger, cands []Candidate, progress func(string)) []Source {
	results := make([]Source, len(cands))
	done := make([]bool, len(cands))

	var eg errgroup.Group
	eg.SetLimit(svc.config.MaxConcurrentFetches)
	for i, c := range cands {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			progress(fmt.Sprintf("Scraping [%d/%d] %s", i+1, len(cands), c.URL))
			results[i] = svc.fetcher.Fetch(context.WithoutCancel(ctx), c)
			done[i] = true
			return nil
		})
	}
	eg.Wait()

	out := make([]Source, 0, len(cands))
	var usable int
	for i := range results {
		if !done[i] {
			continue
		}
		if results[i].FetchStatus.Usable() {
			usable++
		}
		out = append(out, results[i])
	}
	if skipped := len(cands) - len(out); skipped > 0 {
		log.Warn("recherche: session deadline reached, fetches skipped", "skipped", skipped)
	}
	log.Info("recherche: fetch done", "fetched", len(out), "usable", usable)
	return out
}

// record appends the session to the history, then archives and exports it
// when configured. Archive and export failures are logged only.
func (svc *Service) record(ctx context.Context, log *slog.Logger, sess *Session) {
	svc.history.Append(sess)
	ctx = context.WithoutCancel(ctx)
	if svc.archive != nil {
		if id, err := svc.archive.Put(ctx, sess); err != nil {
			log.Warn("recherche: archive failed", "error", err)
		} else {
			log.Debug("recherche: archived", "id", id)
		}
	}
	if svc.export != nil {
		if paths, err := svc.export.WriteSession(ctx, sess); err != nil {
			log.Warn("recherche: export failed", "error", err)
		} else {
			log.Debug("recherche: exported", "files", len(paths))
		}
	}
}

// serialize makes fn safe to call from several goroutines. A nil fn yields
// a no-op.
func serialize(fn func(string)) func(string) {
	if fn == nil {
		return func(string) {}
	}
	var mu sync.Mutex
	return func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		fn(msg)
	}
}

// History returns a snapshot of the sessions run by this Service, oldest first.
func (svc *Service) History() []*Session {
	return svc.history.All()
}

// SaveResearch writes the history to path, or to a timestamped file in the
// working directory when path is empty. Returns the path written.
func (svc *Service) SaveResearch(path string) (string, error) {
	if path == "" {
		path = store.DefaultPath(svc.now())
	}
	p, err := svc.history.Save(path)
	if err != nil {
		return "", err
	}
	svc.logger.Info("recherche: saved", "path", p, "sessions", svc.history.Len())
	return p, nil
}

// LoadResearch reads a file written by SaveResearch. Structurally invalid
// files fail with ErrCorruptStore.
func LoadResearch(path string) ([]*Session, error) {
	return store.Load(path)
}

// Recent lists past sessions, newest first: from the archive when one is
// configured, otherwise from this Service's history.
func (svc *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	if svc.archive != nil {
		return svc.archive.Recent(ctx, limit)
	}
	all := svc.history.All()
	out := make([]Entry, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		s := all[i]
		e := Entry{
			Query:       s.Query,
			Depth:       s.Depth,
			CreatedAt:   s.Timestamp,
			ResultCount: len(s.SearchResults),
			SourceCount: len(s.Sources),
			UsableCount: len(s.UsableSources()),
		}
		if s.Analysis != nil {
			e.Analysis = s.Analysis.Backend
		}
		out = append(out, e)
	}
	return out, nil
}

// SearchArchive runs a full-text query over archived sources.
func (svc *Service) SearchArchive(ctx context.Context, query string, limit int) ([]Hit, error) {
	if svc.archive == nil {
		return nil, ErrNoArchive
	}
	return svc.archive.Search(ctx, query, limit)
}

// Archived returns one archived session by ID, or nil when absent.
func (svc *Service) Archived(ctx context.Context, id string) (*Session, error) {
	if svc.archive == nil {
		return nil, ErrNoArchive
	}
	return svc.archive.Get(ctx, id)
}
