// CLAUDE:SUMMARY Re-exports the research data model (sessions, candidates, sources, analysis, enums) as the public API.
// Package recherche runs open-web research sessions.
//
// A session searches the web for a query, fetches and cleans the top
// results, and optionally asks a local language model for a synthesis.
// Depth gates the stages: quick (search only), standard (search + fetch),
// deep (search + fetch + synthesis). Degraded upstreams never fail a
// session; only a malformed request does.
package recherche

import (
	"github.com/hazyhaar/recherche/recherche/internal/archive"
	"github.com/hazyhaar/recherche/recherche/internal/search"
	"github.com/hazyhaar/recherche/recherche/internal/store"
	"github.com/hazyhaar/recherche/recherche/internal/synth"
)

// Re-export store types for the public API.
type (
	Session     = store.ResearchSession
	Candidate   = store.SearchCandidate
	Source      = store.ScrapedSource
	Analysis    = store.AnalysisResult
	Depth       = store.Depth
	FetchStatus = store.FetchStatus
	Extractor   = store.Extractor
	Backend     = store.Backend
	Mode        = search.Mode
	Entry       = archive.Entry
	Hit         = archive.Hit

	// SearchProvider and Synthesizer are the pluggable stages, see
	// WithSearchProvider and WithSynthesizer.
	SearchProvider = search.Provider
	Synthesizer    = synth.Synthesizer
)

const (
	DepthQuick    = store.DepthQuick
	DepthStandard = store.DepthStandard
	DepthDeep     = store.DepthDeep

	StatusOK      = store.StatusOK
	StatusPartial = store.StatusPartial
	StatusFailed  = store.StatusFailed

	ExtractorPrimary  = store.ExtractorPrimary
	ExtractorFallback = store.ExtractorFallback
	ExtractorNone     = store.ExtractorNone

	BackendOllama       = store.BackendOllama
	BackendTransformers = store.BackendTransformers
	BackendNone         = store.BackendNone
)

// ParseDepth accepts quick, standard or deep.
func ParseDepth(s string) (Depth, error) { return store.ParseDepth(s) }

// ParseBackend accepts ollama, transformers or none.
func ParseBackend(s string) (Backend, error) { return store.ParseBackend(s) }

// DefaultSavePath returns research_YYYYMMDD_HHMMSS.json for t.
var DefaultSavePath = store.DefaultPath

func normalized(s *Session) *Session { return store.Normalized(s) }
