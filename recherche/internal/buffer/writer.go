// CLAUDE:SUMMARY Atomic Markdown export of usable sources and analyses, one .md file each, with YAML frontmatter.
// Package buffer exports research output as Markdown files.
//
// Each usable source and each analysis becomes one .md file with a YAML
// frontmatter block describing where it came from. Files are written
// atomically (write .tmp then rename) so that a watcher never reads a
// partial file.
package buffer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/recherche/idgen"
	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// Kind tells sources and analyses apart in the frontmatter.
type Kind string

const (
	KindSource   Kind = "source"
	KindAnalysis Kind = "analysis"
)

// Metadata is the frontmatter of one exported file.
type Metadata struct {
	ID          string        `yaml:"id"`
	Kind        Kind          `yaml:"kind"`
	Query       string        `yaml:"query"`
	Depth       store.Depth   `yaml:"depth,omitempty"`
	SourceURL   string        `yaml:"source_url,omitempty"`
	Title       string        `yaml:"title,omitempty"`
	FetchStatus string        `yaml:"fetch_status,omitempty"`
	Extractor   string        `yaml:"extractor,omitempty"`
	Authors     []string      `yaml:"authors,omitempty"`
	PublishDate string        `yaml:"publish_date,omitempty"`
	SiteName    string        `yaml:"site_name,omitempty"`
	Backend     store.Backend `yaml:"backend,omitempty"`
	SourceCount int           `yaml:"source_count,omitempty"`
	ResearchAt  time.Time     `yaml:"research_at"`
}

// Writer deposits .md files into a directory.
type Writer struct {
	dir   string
	newID idgen.Generator
}

// NewWriter creates a Writer targeting dir. The directory is created on
// first write if it does not exist.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:   dir,
		newID: idgen.Timestamped(idgen.Default, nil),
	}
}

// Write creates a .md file with YAML frontmatter and body. The file name is
// the ID followed by a slug of the title. Returns the path written.
func (w *Writer) Write(ctx context.Context, meta Metadata, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("buffer: mkdir %s: %w", w.dir, err)
	}
	if meta.ID == "" {
		meta.ID = w.newID()
	}

	name := meta.ID
	if slug := idgen.Slug(meta.Title, 48); slug != "" {
		name += "_" + slug
	}
	target := filepath.Join(w.dir, name+".md")
	tmp := target + ".tmp"

	content, err := render(meta, body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return "", fmt.Errorf("buffer: write tmp: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("buffer: rename: %w", err)
	}
	return target, nil
}

// WriteSession exports every usable source of s and its analysis, if any.
// Returns the paths written, in session order.
func (w *Writer) WriteSession(ctx context.Context, s *store.ResearchSession) ([]string, error) {
	var paths []string
	for _, src := range s.UsableSources() {
		p, err := w.Write(ctx, Metadata{
			Kind:        KindSource,
			Query:       s.Query,
			Depth:       s.Depth,
			SourceURL:   src.URL,
			Title:       src.Title,
			FetchStatus: string(src.FetchStatus),
			Extractor:   string(src.ExtractorUsed),
			Authors:     src.Authors,
			PublishDate: src.PublishDate,
			SiteName:    src.SiteName,
			ResearchAt:  s.Timestamp,
		}, src.Text)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	if a := s.Analysis; a != nil {
		p, err := w.Write(ctx, Metadata{
			Kind:        KindAnalysis,
			Query:       s.Query,
			Depth:       s.Depth,
			Title:       "Analysis: " + s.Query,
			Backend:     a.Backend,
			SourceCount: a.SourceCount,
			ResearchAt:  s.Timestamp,
		}, a.Summary)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// render builds "---\n<yaml>---\n\n<body>\n".
func render(meta Metadata, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("buffer: frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("buffer: frontmatter: %w", err)
	}
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ReadFrontmatter parses the frontmatter of an exported file.
func ReadFrontmatter(data []byte) (Metadata, error) {
	var m Metadata
	rest, ok := bytes.CutPrefix(data, []byte("---\n"))
	if !ok {
		return m, fmt.Errorf("buffer: missing frontmatter")
	}
	fm, _, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		return m, fmt.Errorf("buffer: unterminated frontmatter")
	}
	if err := yaml.Unmarshal(fm, &m); err != nil {
		return m, fmt.Errorf("buffer: frontmatter: %w", err)
	}
	return m, nil
}
