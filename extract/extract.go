// CLAUDE:SUMMARY HTML content extraction: Article (density/landmarks + metadata) as primary, Plain (goquery body text) as fallback.
// Package extract turns raw HTML into readable text.
//
// Two extractors are provided, meant to be tried in order:
//   - Article: structured article extraction. Picks the main content through
//     semantic landmarks, then text density scoring, and collects title and
//     metadata from OpenGraph and meta tags. Pages with too little content
//     are rejected with ErrInsufficientContent.
//   - Plain: generic markup-to-text. Drops boilerplate regions and returns
//     the whitespace-collapsed text of the best container.
//
// Neither extractor panics on malformed input; arbitrary bytes yield an error
// or an empty result.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MinContentChars is the shortest text an extraction may return before it
// counts as insufficient content.
const MinContentChars = 50

// ErrInsufficientContent is returned when the extracted text is shorter than MinContentChars.
var ErrInsufficientContent = errors.New("extract: insufficient content")

// ErrNoContent is returned when no text at all could be extracted.
var ErrNoContent = errors.New("extract: no content")

// Format selects the text rendering of Article.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Options configures an extraction.
type Options struct {
	// PageURL is the final URL of the page, used to resolve links in Markdown.
	PageURL string
	// MinLen overrides MinContentChars when > 0.
	MinLen int
	// Format selects plain text (default) or Markdown output for Article.
	Format Format
}

func (o Options) minLen() int {
	if o.MinLen > 0 {
		return o.MinLen
	}
	return MinContentChars
}

// Result is an extracted page.
type Result struct {
	Title       string
	Text        string
	Description string
	SiteName    string
	PublishDate string
	Authors     []string
}

// recoverInto converts a panic raised by a parser into an error.
func recoverInto(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("extract: %s: panic: %v", name, r)
	}
}

var (
	spaceRun   = regexp.MustCompile(`[ \t\f\v\r\x{00a0}]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// CleanText collapses horizontal whitespace, trims every line and keeps at
// most one blank line between paragraphs.
func CleanText(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = newlineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// CollapseWhitespace joins all whitespace-separated words with single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
}

// isHidden reports whether an element is not rendered.
func isHidden(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "style":
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

// skipped reports elements whose content is never text.
func skipped(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg,
		atom.Iframe, atom.Object, atom.Canvas, atom.Head:
		return true
	}
	return isHidden(n)
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main, atom.Blockquote,
		atom.Pre, atom.Ul, atom.Ol, atom.Li, atom.Dl, atom.Dt, atom.Dd,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Table, atom.Tr, atom.Figure, atom.Figcaption, atom.Br, atom.Hr,
		atom.Header, atom.Footer, atom.Aside, atom.Nav, atom.Address:
		return true
	}
	return false
}

// collectText returns the readable text below n with paragraph breaks at
// block boundaries. Script, style and hidden elements are ignored.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipped(n) {
				return
			}
			if isBlock(n.DataAtom) {
				sb.WriteString("\n\n")
				defer sb.WriteString("\n\n")
			} else if n.DataAtom == atom.Td || n.DataAtom == atom.Th {
				defer sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return CleanText(sb.String())
}

var boilerplateHints = []string{
	"sidebar", "comment", "footer", "navbar", "menu", "advert", "cookie",
	"share", "related", "breadcrumb", "banner", "popup", "subscribe", "newsletter",
}

// isBoilerplate reports navigation, chrome, and ad regions.
func isBoilerplate(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Nav, atom.Footer, atom.Aside, atom.Form, atom.Header:
		return true
	}
	if role := getAttr(n, "role"); role == "navigation" || role == "banner" || role == "contentinfo" || role == "complementary" {
		return true
	}
	hint := strings.ToLower(getAttr(n, "class") + " " + getAttr(n, "id"))
	if strings.TrimSpace(hint) == "" {
		return false
	}
	for _, h := range boilerplateHints {
		if strings.Contains(hint, h) {
			return true
		}
	}
	return false
}

// isContentTag reports container elements that may hold the main content.
func isContentTag(a atom.Atom) bool {
	switch a {
	case atom.Article, atom.Main, atom.Section, atom.Div, atom.Td:
		return true
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// renderNode serializes n back to HTML.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}
