package synth

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// Excerpt sizes per source, in runes.
const (
	PromptExcerptChars     = 800
	ExtractiveExcerptChars = 500
)

// ExtractiveWindow is the input window of the extractive backend, in runes.
const ExtractiveWindow = 1024

// BuildInput concatenates numbered source excerpts in the given (rank)
// order: a title line, then the first perSource runes of the text followed
// by "...". The result is cut at exactly budget runes, so later sources are
// the first to be dropped. budget <= 0 means no limit.
func BuildInput(sources []store.ScrapedSource, perSource, budget int) string {
	var sb strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&sb, "\n%d. %s\n%s...\n", i+1, s.Title, cut(s.Text, perSource))
	}
	return cut(sb.String(), budget)
}

const instructions = `Based on the above sources, provide a comprehensive research summary that:
1. Synthesizes key findings
2. Identifies common themes
3. Highlights important insights
4. Remains factual and objective

Summary:`

// Prompt builds the local-model prompt.
func Prompt(query string, sources []store.ScrapedSource, budget int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Research Query: %s\n\nSources:\n", query)
	sb.WriteString(BuildInput(sources, PromptExcerptChars, budget))
	sb.WriteString("\n\n")
	sb.WriteString(instructions)
	return sb.String()
}

// cut returns the first max runes of s; max <= 0 returns s unchanged.
func cut(s string, max int) string {
	if max <= 0 {
		return s
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
