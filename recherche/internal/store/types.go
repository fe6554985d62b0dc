// CLAUDE:SUMMARY Research data model: candidates, scraped sources, analysis, sessions, and their closed enums.
package store

import (
	"fmt"
	"time"
)

// Depth gates which pipeline stages run for a session.
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// ParseDepth accepts the lowercase depth names used on the command line.
func ParseDepth(s string) (Depth, error) {
	switch d := Depth(s); d {
	case DepthQuick, DepthStandard, DepthDeep:
		return d, nil
	}
	return "", fmt.Errorf("store: unknown depth %q", s)
}

// Fetches reports whether the depth runs the source fetch stage.
func (d Depth) Fetches() bool { return d == DepthStandard || d == DepthDeep }

// FetchStatus is the outcome of fetching one candidate.
type FetchStatus string

const (
	StatusOK      FetchStatus = "ok"
	StatusPartial FetchStatus = "partial"
	StatusFailed  FetchStatus = "failed"
)

// Usable reports whether a source with this status feeds synthesis.
func (s FetchStatus) Usable() bool { return s == StatusOK || s == StatusPartial }

// Extractor names the extraction path that produced a source's text.
type Extractor string

const (
	ExtractorPrimary  Extractor = "primary"
	ExtractorFallback Extractor = "fallback"
	ExtractorNone     Extractor = "none"
)

// Backend identifies the synthesis backend that produced an analysis.
type Backend string

const (
	BackendOllama       Backend = "ollama"
	BackendTransformers Backend = "transformers"
	BackendNone         Backend = "none"
)

// ParseBackend accepts the backend names used in configuration.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendOllama, BackendTransformers, BackendNone:
		return b, nil
	}
	return "", fmt.Errorf("store: unknown synthesis backend %q", s)
}

// SearchCandidate is one search hit before fetching. Rank is the zero-based
// position in the provider's result list.
type SearchCandidate struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"`
}

// ScrapedSource is the fetched and cleaned form of a candidate.
// Text is empty when FetchStatus is failed.
type ScrapedSource struct {
	URL           string      `json:"url"`
	Title         string      `json:"title"`
	Text          string      `json:"text"`
	FetchStatus   FetchStatus `json:"fetch_status"`
	ExtractorUsed Extractor   `json:"extractor_used"`
	Error         string      `json:"error,omitempty"`

	// Metadata found by the article extractor.
	Authors     []string `json:"authors,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
	SiteName    string   `json:"site_name,omitempty"`
	Description string   `json:"description,omitempty"`
}

// AnalysisResult is the output of a successful synthesis.
type AnalysisResult struct {
	Backend     Backend `json:"backend"`
	Summary     string  `json:"summary"`
	SourceCount int     `json:"source_count"`
}

// ResearchSession is the full record of one research invocation.
type ResearchSession struct {
	Query         string            `json:"query"`
	Timestamp     time.Time         `json:"timestamp"`
	Depth         Depth             `json:"depth"`
	SearchResults []SearchCandidate `json:"search_results"`
	Sources       []ScrapedSource   `json:"sources"`
	Analysis      *AnalysisResult   `json:"analysis,omitempty"`

	// Error is an informational note (e.g. no search results), never a failure.
	Error   string `json:"error,omitempty"`
	Page    int    `json:"page,omitempty"`
	HasMore bool   `json:"has_more,omitempty"`
}

// UsableSources returns the sources that feed synthesis, in session order.
func (s *ResearchSession) UsableSources() []ScrapedSource {
	var out []ScrapedSource
	for _, src := range s.Sources {
		if src.FetchStatus.Usable() {
			out = append(out, src)
		}
	}
	return out
}
