package buffer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/recherche/recherche/internal/store"
)

func TestWrite_CreatesFile(t *testing.T) {
	// WHAT: Write creates a .md file named after the ID and title.
	// WHY: Core functionality; the export must produce files.
	dir := filepath.Join(t.TempDir(), "export")
	w := NewWriter(dir)

	path, err := w.Write(context.Background(), Metadata{ID: "test-001", Kind: KindSource, Title: "Tide Pools: A Guide"}, "Hello world")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "test-001_tide-pools-a-guide.md" {
		t.Errorf("filename: got %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n\nHello world\n") {
		t.Errorf("body: %q", data)
	}
}

func TestWrite_FrontmatterParseable(t *testing.T) {
	// WHAT: Frontmatter round-trips through YAML, special characters included.
	// WHY: Consumers parse frontmatter to route content.
	w := NewWriter(t.TempDir())
	meta := Metadata{
		ID:          "fm-001",
		Kind:        KindSource,
		Query:       `what's "new": #go`,
		Depth:       store.DepthDeep,
		SourceURL:   "https://example.com/a?b=c&d=e",
		Title:       "Article: with [special] chars",
		FetchStatus: "ok",
		Extractor:   "primary",
		Authors:     []string{"A. Writer", "B: Editor"},
		ResearchAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	path, err := w.Write(context.Background(), meta, "Body text")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "---\n") {
		t.Error("must start with ---")
	}
	got, err := ReadFrontmatter(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(meta, got); diff != "" {
		t.Errorf("frontmatter (-want +got):\n%s", diff)
	}
}

func TestWrite_AtomicRename(t *testing.T) {
	// WHAT: No .tmp files are left after a successful write.
	// WHY: Atomic write prevents consumers from reading partial files.
	dir := t.TempDir()
	w := NewWriter(dir)
	if _, err := w.Write(context.Background(), Metadata{ID: "atomic-001"}, "content"); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("tmp file left behind: %s", e.Name())
		}
	}
}

func TestWrite_GeneratedIDsSortByTime(t *testing.T) {
	// WHAT: Without an ID, names start with a UTC timestamp.
	// WHY: A directory listing then reads in research order.
	w := NewWriter(t.TempDir())
	path, err := w.Write(context.Background(), Metadata{Title: "x"}, "b")
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Base(path)
	if len(base) < 16 || base[8] != 'T' || base[15] != 'Z' {
		t.Errorf("name: %q", base)
	}
}

func TestWriteSession(t *testing.T) {
	// WHAT: Only usable sources are exported, plus one file for the analysis.
	// WHY: FAILED sources have no text worth keeping.
	w := NewWriter(t.TempDir())
	s := &store.ResearchSession{
		Query:     "reefs",
		Timestamp: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Depth:     store.DepthDeep,
		Sources: []store.ScrapedSource{
			{URL: "https://a.example", Title: "A", Text: "alpha", FetchStatus: store.StatusOK, ExtractorUsed: store.ExtractorPrimary},
			{URL: "https://b.example", Title: "B", FetchStatus: store.StatusFailed, ExtractorUsed: store.ExtractorNone},
			{URL: "https://c.example", Title: "C", Text: "gamma", FetchStatus: store.StatusPartial, ExtractorUsed: store.ExtractorFallback},
		},
		Analysis: &store.AnalysisResult{Backend: store.BackendOllama, Summary: "summary", SourceCount: 2},
	}
	paths, err := w.WriteSession(context.Background(), s)
	if err != nil {
		t.Fatalf("write session: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("files: got %d, want 3", len(paths))
	}
	data, _ := os.ReadFile(paths[2])
	meta, err := ReadFrontmatter(data)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Kind != KindAnalysis || meta.Backend != store.BackendOllama || meta.SourceCount != 2 {
		t.Errorf("analysis meta: %+v", meta)
	}
	data, _ = os.ReadFile(paths[1])
	if !strings.Contains(string(data), "gamma") {
		t.Errorf("second file should hold source C: %s", data)
	}
}

func TestReadFrontmatter_Errors(t *testing.T) {
	for _, in := range []string{"no frontmatter", "---\nid: x\n", "---\n: [\n---\n"} {
		if _, err := ReadFrontmatter([]byte(in)); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}
