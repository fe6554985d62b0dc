package recherche

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/hazyhaar/recherche/recherche/internal/search"
	"github.com/hazyhaar/recherche/recherche/internal/synth"
)

var testClock = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fetcherFunc func(ctx context.Context, c Candidate) Source

func (f fetcherFunc) Fetch(ctx context.Context, c Candidate) Source { return f(ctx, c) }

func okFetcher() fetcherFunc {
	return func(_ context.Context, c Candidate) Source {
		return Source{
			URL:           c.URL,
			Title:         c.Title,
			Text:          "Body of " + c.Title + " with enough words to be considered a full article.",
			FetchStatus:   StatusOK,
			ExtractorUsed: ExtractorPrimary,
		}
	}
}

func failFetcher() fetcherFunc {
	return func(_ context.Context, c Candidate) Source {
		return Source{URL: c.URL, Title: c.Title, FetchStatus: StatusFailed, ExtractorUsed: ExtractorNone, Error: "http 500"}
	}
}

// candidates returns n distinct candidates, honouring maxResults.
func candidates(n int) search.ProviderFunc {
	return func(_ context.Context, _ string, maxResults int, _ search.Mode) ([]Candidate, error) {
		out := []Candidate{}
		for i := 0; i < n && i < maxResults; i++ {
			out = append(out, Candidate{
				Title:   fmt.Sprintf("Result %d", i),
				URL:     fmt.Sprintf("https://example.com/%d", i),
				Snippet: "snippet",
				Rank:    i,
			})
		}
		return out, nil
	}
}

func newTestService(t *testing.T, cfg *Config, opts ...Option) *Service {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.SynthBackend == "" {
		cfg.SynthBackend = "none"
	}
	opts = append([]Option{WithClock(func() time.Time { return testClock })}, opts...)
	svc, err := New(cfg, quietLogger(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestResearch_QuickSkipsFetch(t *testing.T) {
	// WHAT: Quick depth returns search results without fetching or analysis.
	// WHY: Quick is the cheap path; no page download may happen.
	var fetches atomic.Int32
	f := fetcherFunc(func(ctx context.Context, c Candidate) Source {
		fetches.Add(1)
		return okFetcher()(ctx, c)
	})
	svc := newTestService(t, nil, WithSearchProvider(candidates(3)), WithSourceFetcher(f))

	sess, err := svc.Research(context.Background(), "golang", DepthQuick, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.SearchResults) != 3 {
		t.Errorf("search results: got %d, want 3", len(sess.SearchResults))
	}
	if len(sess.Sources) != 0 || sess.Analysis != nil {
		t.Errorf("quick session has sources=%d analysis=%v", len(sess.Sources), sess.Analysis)
	}
	if fetches.Load() != 0 {
		t.Errorf("fetches: got %d, want 0", fetches.Load())
	}
	if !sess.Timestamp.Equal(testClock) {
		t.Errorf("timestamp: got %v", sess.Timestamp)
	}
}

func TestResearch_StandardAllFetchesFail(t *testing.T) {
	// WHAT: Failed fetches are recorded as failed sources, not errors.
	// WHY: A dead upstream must degrade the session, never abort it.
	svc := newTestService(t, nil, WithSearchProvider(candidates(5)), WithSourceFetcher(failFetcher()))

	sess, err := svc.Research(context.Background(), "golang", DepthStandard, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Sources) != 2 {
		t.Fatalf("sources: got %d, want 2", len(sess.Sources))
	}
	for i, src := range sess.Sources {
		if src.FetchStatus != StatusFailed || src.Text != "" {
			t.Errorf("source %d: status=%s text=%q", i, src.FetchStatus, src.Text)
		}
	}
	if sess.Analysis != nil {
		t.Error("standard depth must not produce an analysis")
	}
}

func TestResearch_DeepWithoutUsableSourcesSkipsModel(t *testing.T) {
	// WHAT: Deep research with only failed sources yields no analysis and never calls the model.
	// WHY: An empty prompt wastes a slow local model call.
	var calls atomic.Int32
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"response":"should not happen"}`))
	}))
	defer model.Close()

	cfg := &Config{SynthBackend: "ollama", Ollama: synth.OllamaConfig{Endpoint: model.URL, API: synth.APINative}}
	svc := newTestService(t, cfg, WithSearchProvider(candidates(3)), WithSourceFetcher(failFetcher()))

	sess, err := svc.Research(context.Background(), "golang", DepthDeep, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Analysis != nil {
		t.Errorf("analysis: got %+v, want nil", sess.Analysis)
	}
	if calls.Load() != 0 {
		t.Errorf("model calls: got %d, want 0", calls.Load())
	}
}

func TestResearch_DeepProducesAnalysis(t *testing.T) {
	// WHAT: Deep research summarizes the usable sources with the local model.
	// WHY: This is the only path that fills the analysis field.
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"  Go is a compiled language.  "}`))
	}))
	defer model.Close()

	cfg := &Config{SynthBackend: "ollama", Ollama: synth.OllamaConfig{Endpoint: model.URL, API: synth.APINative}}
	svc := newTestService(t, cfg, WithSearchProvider(candidates(3)), WithSourceFetcher(okFetcher()))

	sess, err := svc.Research(context.Background(), "golang", DepthDeep, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := &Analysis{Backend: BackendOllama, Summary: "Go is a compiled language.", SourceCount: 2}
	if diff := cmp.Diff(want, sess.Analysis); diff != "" {
		t.Errorf("analysis mismatch (-want +got):\n%s", diff)
	}
}

func TestResearch_SearchUnavailableTwice(t *testing.T) {
	// WHAT: A search backend failing on both attempts yields an empty session with a note.
	// WHY: Search outages degrade to "no results"; the caller still gets a session.
	var hits atomic.Int32
	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ddg.Close()

	cfg := &Config{
		Search: search.Config{Engine: search.EngineDuckDuckGo, DuckDuckGoURL: ddg.URL},
		Retry:  search.RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond},
	}
	svc := newTestService(t, cfg, WithSourceFetcher(okFetcher()))

	sess, err := svc.Research(context.Background(), "golang", DepthStandard, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.SearchResults) != 0 || len(sess.Sources) != 0 {
		t.Errorf("results=%d sources=%d, want empty", len(sess.SearchResults), len(sess.Sources))
	}
	if sess.Error != NoResultsNote {
		t.Errorf("error note: got %q", sess.Error)
	}
	if hits.Load() != 2 {
		t.Errorf("search attempts: got %d, want 2", hits.Load())
	}
}

func TestResearch_InjectedProviderRetried(t *testing.T) {
	// WHAT: A provider passed through WithSearchProvider gets the retry policy.
	// WHY: One transient outage must not turn a custom engine into "no results".
	var calls atomic.Int32
	p := search.ProviderFunc(func(ctx context.Context, q string, n int, m search.Mode) ([]Candidate, error) {
		if calls.Add(1) == 1 {
			return nil, search.ErrSearchUnavailable
		}
		return candidates(3)(ctx, q, n, m)
	})
	cfg := &Config{Retry: search.RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}}
	svc := newTestService(t, cfg, WithSearchProvider(p))

	sess, err := svc.Research(context.Background(), "golang", DepthQuick, 3)
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("provider calls: got %d, want 2", calls.Load())
	}
	if len(sess.SearchResults) != 3 || sess.Error != "" {
		t.Errorf("results=%d note=%q, want 3 results and no note", len(sess.SearchResults), sess.Error)
	}
}

func TestResearch_SourcesKeepRankOrder(t *testing.T) {
	// WHAT: Sources are returned in candidate order even when fetches finish in reverse.
	// WHY: Concurrency must not reorder results; rank carries meaning.
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := fetcherFunc(func(ctx context.Context, c Candidate) Source {
		var i int
		fmt.Sscanf(c.URL, "https://example.com/%d", &i)
		time.Sleep(time.Duration(5-i) * 10 * time.Millisecond)
		return okFetcher()(ctx, c)
	})
	svc := newTestService(t, &Config{MaxConcurrentFetches: 5}, WithSearchProvider(candidates(5)), WithSourceFetcher(f))

	sess, err := svc.Research(context.Background(), "golang", DepthStandard, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Sources) != 5 {
		t.Fatalf("sources: got %d", len(sess.Sources))
	}
	for i, src := range sess.Sources {
		if src.URL != sess.SearchResults[i].URL {
			t.Errorf("source %d: got %s, want %s", i, src.URL, sess.SearchResults[i].URL)
		}
	}
}

func TestResearch_ConcurrencyBound(t *testing.T) {
	// WHAT: No more than MaxConcurrentFetches downloads run at once.
	// WHY: Unbounded fan-out gets the client rate-limited or banned.
	var cur, peak atomic.Int32
	f := fetcherFunc(func(ctx context.Context, c Candidate) Source {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		cur.Add(-1)
		return okFetcher()(ctx, c)
	})
	svc := newTestService(t, &Config{MaxConcurrentFetches: 2}, WithSearchProvider(candidates(6)), WithSourceFetcher(f))

	if _, err := svc.Research(context.Background(), "golang", DepthStandard, 6); err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency: got %d, want <= 2", peak.Load())
	}
}

func TestResearch_DedupesCandidates(t *testing.T) {
	// WHAT: Duplicate URLs from the provider appear once in the session.
	// WHY: Fetching the same page twice wastes a source slot.
	p := search.ProviderFunc(func(context.Context, string, int, search.Mode) ([]Candidate, error) {
		return []Candidate{
			{Title: "A", URL: "https://example.com/a", Rank: 0},
			{Title: "A", URL: "https://example.com/a/", Rank: 1},
			{Title: "B", URL: "https://example.com/b", Rank: 2},
		}, nil
	})
	svc := newTestService(t, nil, WithSearchProvider(p))

	sess, err := svc.Research(context.Background(), "q", DepthQuick, 5)
	if err != nil {
		t.Fatal(err)
	}
	var urls []string
	for _, c := range sess.SearchResults {
		urls = append(urls, c.URL)
	}
	if diff := cmp.Diff([]string{"https://example.com/a", "https://example.com/b"}, urls); diff != "" {
		t.Errorf("urls (-want +got):\n%s", diff)
	}
}

func TestResearch_Pagination(t *testing.T) {
	// WHAT: Pages slice the ranked results and HasMore reports a further page.
	// WHY: "More results" in the UI relies on both.
	var asked []int
	var mu sync.Mutex
	base := candidates(12)
	p := search.ProviderFunc(func(ctx context.Context, q string, n int, m search.Mode) ([]Candidate, error) {
		mu.Lock()
		asked = append(asked, n)
		mu.Unlock()
		return base(ctx, q, n, m)
	})
	svc := newTestService(t, nil, WithSearchProvider(p))

	cases := []struct {
		page    int
		first   string
		count   int
		hasMore bool
	}{
		{0, "https://example.com/0", 5, true},
		{1, "https://example.com/5", 5, true},
		{2, "https://example.com/10", 2, false},
	}
	for _, tc := range cases {
		sess, err := svc.Research(context.Background(), "q", DepthQuick, 5, WithPage(tc.page, 0))
		if err != nil {
			t.Fatal(err)
		}
		if len(sess.SearchResults) != tc.count || sess.HasMore != tc.hasMore || sess.Page != tc.page {
			t.Errorf("page %d: count=%d hasMore=%v page=%d", tc.page, len(sess.SearchResults), sess.HasMore, sess.Page)
			continue
		}
		if sess.SearchResults[0].URL != tc.first {
			t.Errorf("page %d: first=%s, want %s", tc.page, sess.SearchResults[0].URL, tc.first)
		}
	}
	if diff := cmp.Diff([]int{15, 15, 20}, asked); diff != "" {
		t.Errorf("requested result counts (-want +got):\n%s", diff)
	}

	sess, err := svc.Research(context.Background(), "q", DepthQuick, 5, WithPage(7, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.SearchResults) != 0 || sess.HasMore || sess.Error != NoResultsNote {
		t.Errorf("past the end: %+v", sess)
	}
}

func TestResearch_Progress(t *testing.T) {
	// WHAT: Progress reports each stage in order.
	// WHY: The CLI prints these lines while the user waits.
	var msgs []string
	svc := newTestService(t, nil, WithSearchProvider(candidates(2)), WithSourceFetcher(okFetcher()))

	_, err := svc.Research(context.Background(), "q", DepthDeep, 1, WithNews(), WithProgress(func(m string) {
		msgs = append(msgs, m)
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Searching the news...", "Scraping [1/1] https://example.com/0", "Analyzing with none..."}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("progress (-want +got):\n%s", diff)
	}
}

func TestResearch_NewsMode(t *testing.T) {
	// WHAT: WithNews reaches the provider as the news mode.
	// WHY: Engines route news queries to a different vertical.
	var got search.Mode
	p := search.ProviderFunc(func(_ context.Context, _ string, _ int, m search.Mode) ([]Candidate, error) {
		got = m
		return nil, nil
	})
	svc := newTestService(t, nil, WithSearchProvider(p))
	if _, err := svc.Research(context.Background(), "q", DepthQuick, 1, WithNews()); err != nil {
		t.Fatal(err)
	}
	if got != search.ModeNews {
		t.Errorf("mode: got %v", got)
	}
}

func TestResearch_DeadlineSkipsPendingFetches(t *testing.T) {
	// WHAT: After the session deadline, fetches not yet started are skipped; started ones finish.
	// WHY: A session must end in bounded time without dropping work already paid for.
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := fetcherFunc(func(ctx context.Context, c Candidate) Source {
		time.Sleep(150 * time.Millisecond)
		if ctx.Err() != nil {
			return failFetcher()(ctx, c)
		}
		return okFetcher()(ctx, c)
	})
	cfg := &Config{MaxConcurrentFetches: 1, SessionDeadline: 30 * time.Millisecond}
	svc := newTestService(t, cfg, WithSearchProvider(candidates(3)), WithSourceFetcher(f))

	sess, err := svc.Research(context.Background(), "q", DepthStandard, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Sources) != 1 {
		t.Fatalf("sources: got %d, want 1", len(sess.Sources))
	}
	if sess.Sources[0].FetchStatus != StatusOK {
		t.Errorf("started fetch was cancelled: %+v", sess.Sources[0])
	}
}

type synthFunc func(ctx context.Context, query string, sources []Source) *Analysis

func (f synthFunc) Backend() Backend { return BackendTransformers }
func (f synthFunc) Summarize(ctx context.Context, query string, sources []Source) *Analysis {
	return f(ctx, query, sources)
}

func TestResearch_DeadlineKeepsSynthesis(t *testing.T) {
	// WHAT: A deep session past its deadline still analyses the sources it fetched.
	// WHY: The deadline gates new fetches only; usable sources must not lose their analysis.
	f := fetcherFunc(func(ctx context.Context, c Candidate) Source {
		time.Sleep(60 * time.Millisecond)
		return okFetcher()(ctx, c)
	})
	var ctxErr error
	s := synthFunc(func(ctx context.Context, _ string, sources []Source) *Analysis {
		ctxErr = ctx.Err()
		return &Analysis{Backend: BackendTransformers, Summary: "summary", SourceCount: len(sources)}
	})
	cfg := &Config{MaxConcurrentFetches: 1, SessionDeadline: 20 * time.Millisecond}
	svc := newTestService(t, cfg, WithSearchProvider(candidates(2)), WithSourceFetcher(f), WithSynthesizer(s))

	sess, err := svc.Research(context.Background(), "q", DepthDeep, 2)
	if err != nil {
		t.Fatal(err)
	}
	if ctxErr != nil {
		t.Errorf("synthesis context already done: %v", ctxErr)
	}
	if sess.Analysis == nil || sess.Analysis.SourceCount != 1 {
		t.Errorf("analysis: got %+v, want one analysed source", sess.Analysis)
	}
}

func TestResearch_InvalidInput(t *testing.T) {
	// WHAT: Empty queries and bad parameters fail with the caller error kinds.
	// WHY: Only malformed requests may fail a session.
	svc := newTestService(t, nil, WithSearchProvider(candidates(1)))
	ctx := context.Background()

	if _, err := svc.Research(ctx, "   ", DepthQuick, 1); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("blank query: got %v", err)
	}
	if _, err := svc.Research(ctx, "q", Depth("thorough"), 1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("unknown depth: got %v", err)
	}
	if _, err := svc.Research(ctx, "q", DepthStandard, 0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("zero sources: got %v", err)
	}
	if _, err := svc.Research(ctx, "q", DepthQuick, 0); err != nil {
		t.Errorf("quick with zero sources: %v", err)
	}
	if n := len(svc.History()); n != 1 {
		t.Errorf("history: got %d sessions, want 1", n)
	}
}

func TestNew_InvalidConfiguration(t *testing.T) {
	// WHAT: Unusable configurations are rejected at construction.
	// WHY: Failing early beats failing on the first deep session.
	cases := []*Config{
		{SynthBackend: "gpt"},
		{MaxConcurrentFetches: -1},
		{SynthCharBudget: -5},
		{SessionDeadline: -time.Second},
		{Search: search.Config{Engine: "altavista"}},
	}
	for i, cfg := range cases {
		if _, err := New(cfg, quietLogger()); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("case %d: got %v, want ErrInvalidConfiguration", i, err)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	// WHAT: YAML config is decoded and bad YAML is a configuration error.
	// WHY: The CLI reads --config through this path.
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	os.WriteFile(good, []byte("max_concurrent_fetches: 3\nsynth_backend: transformers\nfetch_timeout: 4s\nsearch:\n  engine: duckduckgo\n"), 0o644)

	cfg, err := LoadConfigFile(good)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxConcurrentFetches != 3 || cfg.SynthBackend != "transformers" || cfg.FetchTimeout != 4*time.Second || cfg.Search.Engine != "duckduckgo" {
		t.Errorf("decoded: %+v", cfg)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("max_concurrent_fetches: [\n"), 0o644)
	if _, err := LoadConfigFile(bad); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("bad yaml: got %v", err)
	}
}

func TestSaveLoadResearch(t *testing.T) {
	// WHAT: Saved history loads back equal, under the default timestamped name.
	// WHY: Sessions are the only durable output of the CLI.
	t.Chdir(t.TempDir())
	svc := newTestService(t, nil, WithSearchProvider(candidates(3)), WithSourceFetcher(okFetcher()))
	ctx := context.Background()
	svc.Research(ctx, "first", DepthQuick, 2)
	svc.Research(ctx, "second", DepthStandard, 2)

	path, err := svc.SaveResearch("")
	if err != nil {
		t.Fatal(err)
	}
	if path != "research_20260314_092653.json" {
		t.Errorf("default path: got %s", path)
	}
	loaded, err := LoadResearch(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(normalizedAll(svc.History()), loaded); diff != "" {
		t.Errorf("round trip (-saved +loaded):\n%s", diff)
	}
}

func TestLoadResearch_Corrupt(t *testing.T) {
	// WHAT: Non-array files are rejected with ErrCorruptStore.
	// WHY: A partial history is worse than a clear error.
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"query":"x"}`), 0o644)
	if _, err := LoadResearch(path); !errors.Is(err, ErrCorruptStore) {
		t.Errorf("got %v, want ErrCorruptStore", err)
	}
}

func TestRecent_InMemoryNewestFirst(t *testing.T) {
	// WHAT: Without an archive, Recent lists this process's sessions newest first.
	// WHY: The history command works without a database.
	svc := newTestService(t, nil, WithSearchProvider(candidates(2)), WithSourceFetcher(okFetcher()))
	ctx := context.Background()
	svc.Research(ctx, "older", DepthQuick, 1)
	svc.Research(ctx, "newer", DepthStandard, 1)

	entries, err := svc.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Query != "newer" || entries[1].Query != "older" {
		t.Fatalf("entries: %+v", entries)
	}
	if entries[0].UsableCount != 1 {
		t.Errorf("usable count: got %d", entries[0].UsableCount)
	}
	if _, err := svc.SearchArchive(ctx, "x", 5); !errors.Is(err, ErrNoArchive) {
		t.Errorf("SearchArchive without archive: got %v", err)
	}
}

func TestResearch_ArchiveAndExport(t *testing.T) {
	// WHAT: With an archive and export dir configured, sessions are indexed and written as Markdown.
	// WHY: Both hooks run after every session and must not need extra calls.
	dir := t.TempDir()
	cfg := &Config{ArchivePath: filepath.Join(dir, "db", "recherche.db"), ExportDir: filepath.Join(dir, "export")}
	svc := newTestService(t, cfg, WithSearchProvider(candidates(2)), WithSourceFetcher(okFetcher()))
	ctx := context.Background()

	if _, err := svc.Research(ctx, "golang", DepthStandard, 2); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.Recent(ctx, 5)
	if err != nil || len(entries) != 1 {
		t.Fatalf("recent: %v %+v", err, entries)
	}
	hits, err := svc.SearchArchive(ctx, "article", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("hits: got %d, want 2", len(hits))
	}
	sess, err := svc.Archived(ctx, entries[0].ID)
	if err != nil || sess == nil || sess.Query != "golang" {
		t.Errorf("archived: %v %+v", err, sess)
	}

	files, _ := os.ReadDir(cfg.ExportDir)
	var md int
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".md") {
			md++
		}
	}
	if md != 2 {
		t.Errorf("exported markdown files: got %d, want 2", md)
	}
}
