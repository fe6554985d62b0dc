package synth

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// Extractive is the offline summarization backend. It scores the sentences
// of a bounded input window by term frequency and query overlap and keeps
// the best ones, in reading order, between MinWords and MaxWords.
type Extractive struct {
	window   int
	minWords int
	maxWords int
	logger   *slog.Logger
}

func newExtractive(cfg Config) *Extractive {
	window := ExtractiveWindow
	if cfg.CharBudget > 0 && cfg.CharBudget < window {
		window = cfg.CharBudget
	}
	return &Extractive{
		window:   window,
		minWords: cfg.MinWords,
		maxWords: cfg.MaxWords,
		logger:   cfg.Logger,
	}
}

func (e *Extractive) Backend() store.Backend { return store.BackendTransformers }

func (e *Extractive) Summarize(ctx context.Context, query string, sources []store.ScrapedSource) *store.AnalysisResult {
	src := usable(sources)
	if len(src) == 0 {
		e.logger.Info("synth: no usable sources, skipping analysis", "backend", store.BackendTransformers)
		return nil
	}
	if ctx.Err() != nil {
		e.logger.Warn("synth: cancelled before analysis", "error", ctx.Err())
		return nil
	}

	var sb strings.Builder
	for _, s := range src {
		fmt.Fprintf(&sb, "%s: %s... ", s.Title, cut(s.Text, ExtractiveExcerptChars))
	}
	summary := e.summarize(query, cut(sb.String(), e.window))
	if summary == "" {
		e.logger.Warn("synth: extractive summary empty", "query", query)
		return nil
	}
	return &store.AnalysisResult{Backend: store.BackendTransformers, Summary: summary, SourceCount: len(src)}
}

var sentenceEnd = regexp.MustCompile(`[.!?]+["')\]]*\s+`)

// splitSentences splits on terminal punctuation. A trailing fragment cut by
// the window is dropped unless it is the only text.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[last:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		if len(out) == 0 || strings.ContainsAny(tail[len(tail)-1:], ".!?") {
			out = append(out, tail)
		}
	}
	return out
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "for": true, "from": true, "has": true, "have": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"this": true, "to": true, "was": true, "were": true, "will": true, "with": true,
	"le": true, "la": true, "les": true, "de": true, "des": true, "du": true, "et": true,
	"un": true, "une": true, "en": true, "est": true, "pour": true, "dans": true,
}

func terms(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 && !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

func (e *Extractive) summarize(query, text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	freq := map[string]int{}
	for _, s := range sentences {
		for _, t := range terms(s) {
			freq[t]++
		}
	}
	queryTerms := map[string]bool{}
	for _, t := range terms(query) {
		queryTerms[t] = true
	}

	type scored struct {
		idx   int
		score float64
		words int
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		ts := terms(s)
		var score float64
		for _, t := range ts {
			score += float64(freq[t])
			if queryTerms[t] {
				score += 2
			}
		}
		if len(ts) > 0 {
			score /= float64(len(ts))
		}
		ranked[i] = scored{idx: i, score: score, words: len(strings.Fields(s))}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	keep := map[int]bool{}
	words := 0
	for _, r := range ranked {
		if words >= e.minWords {
			break
		}
		if words+r.words > e.maxWords {
			continue
		}
		keep[r.idx] = true
		words += r.words
	}
	if len(keep) == 0 {
		// A single sentence longer than maxWords: keep its head.
		return strings.Join(strings.Fields(sentences[ranked[0].idx])[:e.maxWords], " ")
	}

	parts := make([]string, 0, len(keep))
	for i, s := range sentences {
		if keep[i] {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
