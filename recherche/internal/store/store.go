// CLAUDE:SUMMARY Append-only in-memory session history with atomic JSON save and validating load.
// Package store holds the research data model and the session history.
//
// SessionStore is append-only: sessions are never edited once stored.
// Save writes every held session to a JSON array atomically (write .tmp
// then rename). Load rejects structurally invalid files with ErrCorruptStore
// instead of returning a partial history.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrCorruptStore is returned by Load when the file is not a valid session array.
var ErrCorruptStore = errors.New("store: corrupt session file")

// DefaultFileLayout is the time layout for auto-generated save paths.
const DefaultFileLayout = "research_20060102_150405.json"

// DefaultPath returns the auto-generated save path for instant t.
func DefaultPath(t time.Time) string {
	return t.Format(DefaultFileLayout)
}

// SessionStore is the shared session history. Safe for concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	sessions []*ResearchSession
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Append adds a session to the history.
func (s *SessionStore) Append(sess *ResearchSession) {
	if sess == nil {
		return
	}
	s.mu.Lock()
	s.sessions = append(s.sessions, sess)
	s.mu.Unlock()
}

// All returns a snapshot of the history in insertion order.
func (s *SessionStore) All() []*ResearchSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ResearchSession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Save writes the current snapshot to path, overwriting any existing file.
// Returns the path written.
func (s *SessionStore) Save(path string) (string, error) {
	return path, WriteFile(path, s.All())
}

// WriteFile encodes sessions as an indented JSON array and writes it atomically.
func WriteFile(path string, sessions []*ResearchSession) error {
	out := make([]*ResearchSession, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, Normalized(sess))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("store: write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}

// Normalized returns sess with nil slices replaced by empty ones so that
// they encode as [] rather than null. sess itself is not modified.
func Normalized(sess *ResearchSession) *ResearchSession {
	if sess.SearchResults != nil && sess.Sources != nil {
		return sess
	}
	cp := *sess
	if cp.SearchResults == nil {
		cp.SearchResults = []SearchCandidate{}
	}
	if cp.Sources == nil {
		cp.Sources = []ScrapedSource{}
	}
	return &cp
}

// Load reads a session file written by Save.
func Load(path string) ([]*ResearchSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses and validates a JSON session array.
func Decode(data []byte) ([]*ResearchSession, error) {
	var raw []wireSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not a session array", ErrCorruptStore)
	}

	out := make([]*ResearchSession, 0, len(raw))
	for i := range raw {
		sess, err := raw[i].session()
		if err != nil {
			return nil, fmt.Errorf("%w: session %d: %v", ErrCorruptStore, i, err)
		}
		out = append(out, sess)
	}
	return out, nil
}

// Load reads path without touching the in-memory history.
func (s *SessionStore) Load(path string) ([]*ResearchSession, error) {
	return Load(path)
}

// wireSession mirrors ResearchSession with pointers so that missing
// required keys can be told apart from zero values. The nested wire types
// do the same for each record inside a session.
type wireSession struct {
	Query         *string          `json:"query"`
	Timestamp     *time.Time       `json:"timestamp"`
	Depth         *Depth           `json:"depth"`
	SearchResults *[]wireCandidate `json:"search_results"`
	Sources       *[]wireSource    `json:"sources"`
	Analysis      *wireAnalysis    `json:"analysis"`
	Error         string           `json:"error"`
	Page          int              `json:"page"`
	HasMore       bool             `json:"has_more"`
}

type wireCandidate struct {
	Title   *string `json:"title"`
	URL     *string `json:"url"`
	Snippet *string `json:"snippet"`
	Rank    *int    `json:"rank"`
}

func (w *wireCandidate) candidate() (SearchCandidate, error) {
	switch {
	case w.URL == nil || *w.URL == "":
		return SearchCandidate{}, errors.New("missing url")
	case w.Title == nil:
		return SearchCandidate{}, errors.New("missing title")
	case w.Snippet == nil:
		return SearchCandidate{}, errors.New("missing snippet")
	case w.Rank == nil:
		return SearchCandidate{}, errors.New("missing rank")
	case *w.Rank < 0:
		return SearchCandidate{}, errors.New("negative rank")
	}
	return SearchCandidate{Title: *w.Title, URL: *w.URL, Snippet: *w.Snippet, Rank: *w.Rank}, nil
}

type wireSource struct {
	URL           *string      `json:"url"`
	Title         *string      `json:"title"`
	Text          *string      `json:"text"`
	FetchStatus   *FetchStatus `json:"fetch_status"`
	ExtractorUsed *Extractor   `json:"extractor_used"`
	Error         string       `json:"error"`
	Authors       []string     `json:"authors"`
	PublishDate   string       `json:"publish_date"`
	SiteName      string       `json:"site_name"`
	Description   string       `json:"description"`
}

func (w *wireSource) source() (ScrapedSource, error) {
	switch {
	case w.URL == nil || *w.URL == "":
		return ScrapedSource{}, errors.New("missing url")
	case w.Title == nil:
		return ScrapedSource{}, errors.New("missing title")
	case w.Text == nil:
		return ScrapedSource{}, errors.New("missing text")
	case w.FetchStatus == nil:
		return ScrapedSource{}, errors.New("missing fetch_status")
	case w.ExtractorUsed == nil:
		return ScrapedSource{}, errors.New("missing extractor_used")
	}
	switch *w.FetchStatus {
	case StatusOK, StatusPartial, StatusFailed:
	default:
		return ScrapedSource{}, fmt.Errorf("invalid fetch_status %q", *w.FetchStatus)
	}
	switch *w.ExtractorUsed {
	case ExtractorPrimary, ExtractorFallback, ExtractorNone:
	default:
		return ScrapedSource{}, fmt.Errorf("invalid extractor_used %q", *w.ExtractorUsed)
	}
	return ScrapedSource{
		URL:           *w.URL,
		Title:         *w.Title,
		Text:          *w.Text,
		FetchStatus:   *w.FetchStatus,
		ExtractorUsed: *w.ExtractorUsed,
		Error:         w.Error,
		Authors:       w.Authors,
		PublishDate:   w.PublishDate,
		SiteName:      w.SiteName,
		Description:   w.Description,
	}, nil
}

type wireAnalysis struct {
	Backend     *Backend `json:"backend"`
	Summary     *string  `json:"summary"`
	SourceCount *int     `json:"source_count"`
}

func (w *wireAnalysis) analysis() (*AnalysisResult, error) {
	switch {
	case w.Backend == nil:
		return nil, errors.New("missing backend")
	case w.Summary == nil:
		return nil, errors.New("missing summary")
	case w.SourceCount == nil:
		return nil, errors.New("missing source_count")
	case *w.SourceCount < 0:
		return nil, errors.New("negative source_count")
	}
	if _, err := ParseBackend(string(*w.Backend)); err != nil {
		return nil, err
	}
	return &AnalysisResult{Backend: *w.Backend, Summary: *w.Summary, SourceCount: *w.SourceCount}, nil
}

func (w *wireSession) session() (*ResearchSession, error) {
	switch {
	case w.Query == nil || *w.Query == "":
		return nil, errors.New("missing query")
	case w.Timestamp == nil || w.Timestamp.IsZero():
		return nil, errors.New("missing timestamp")
	case w.Depth == nil:
		return nil, errors.New("missing depth")
	case w.SearchResults == nil:
		return nil, errors.New("missing search_results")
	case w.Sources == nil:
		return nil, errors.New("missing sources")
	}
	if _, err := ParseDepth(string(*w.Depth)); err != nil {
		return nil, err
	}

	sess := &ResearchSession{
		Query:         *w.Query,
		Timestamp:     *w.Timestamp,
		Depth:         *w.Depth,
		SearchResults: make([]SearchCandidate, 0, len(*w.SearchResults)),
		Sources:       make([]ScrapedSource, 0, len(*w.Sources)),
		Error:         w.Error,
		Page:          w.Page,
		HasMore:       w.HasMore,
	}
	for j := range *w.SearchResults {
		c, err := (*w.SearchResults)[j].candidate()
		if err != nil {
			return nil, fmt.Errorf("search_results[%d]: %v", j, err)
		}
		sess.SearchResults = append(sess.SearchResults, c)
	}
	for j := range *w.Sources {
		src, err := (*w.Sources)[j].source()
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %v", j, err)
		}
		sess.Sources = append(sess.Sources, src)
	}
	if w.Analysis != nil {
		a, err := w.Analysis.analysis()
		if err != nil {
			return nil, fmt.Errorf("analysis: %v", err)
		}
		sess.Analysis = a
	}
	return sess, nil
}
