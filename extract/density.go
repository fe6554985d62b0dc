package extract

import (
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// contentNodes selects the subtrees holding the main content of a page.
// Semantic landmarks (<main>, <article>) win when they carry at least minLen
// characters; otherwise the densest container below <body> is used.
// Returns nil when nothing qualifies.
func contentNodes(doc *html.Node, minLen int) []*html.Node {
	var picked []*html.Node
	for _, n := range findContentByLandmarks(doc) {
		if isBoilerplate(n) {
			continue
		}
		if utf8.RuneCountInString(collectText(n)) >= minLen {
			picked = append(picked, n)
		}
	}
	if len(picked) > 0 {
		return picked
	}

	body := findBody(doc)
	if body == nil {
		body = doc
	}
	if best := findDensestNode(body, minLen); best != nil {
		return []*html.Node{best}
	}
	return nil
}

// nodeScore holds density analysis for a DOM subtree.
type nodeScore struct {
	node      *html.Node
	textLen   int
	markupLen int
	density   float64
	linkDens  float64 // fraction of text inside <a> tags
}

// findDensestNode walks the DOM and finds the node with highest content density.
func findDensestNode(root *html.Node, minLen int) *html.Node {
	var candidates []nodeScore

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if isBoilerplate(n) || skipped(n) {
			return
		}
		if !isContentTag(n.DataAtom) && n.DataAtom != atom.Body {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			return
		}

		text := collectText(n)
		if utf8.RuneCountInString(text) < minLen {
			return
		}
		textLen := len(text)

		markupLen := len(renderNode(n))
		if markupLen == 0 {
			markupLen = 1
		}

		linkText := collectLinkText(n)
		candidates = append(candidates, nodeScore{
			node:      n,
			textLen:   textLen,
			markupLen: markupLen,
			density:   float64(textLen) / float64(markupLen),
			linkDens:  float64(len(linkText)) / float64(textLen),
		})

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	var best *nodeScore
	var bestScore float64
	for i := range candidates {
		c := &candidates[i]
		if c.linkDens > 0.5 {
			continue // mostly links, probably navigation
		}
		// density * log(textLen) * (1 - linkDensity)
		score := c.density * logScale(c.textLen) * (1 - c.linkDens)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return best.node
}

// logScale returns a log2-ish scale factor for text length.
func logScale(n int) float64 {
	if n <= 0 {
		return 0
	}
	scale := 1.0
	for v := n; v > 100; v /= 2 {
		scale++
	}
	return scale
}

// collectLinkText extracts text only from <a> elements.
func collectLinkText(n *html.Node) string {
	var buf []byte
	var f func(*html.Node, bool)
	f = func(n *html.Node, inLink bool) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			inLink = true
		}
		if n.Type == html.TextNode && inLink {
			buf = append(buf, CollapseWhitespace(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c, inLink)
		}
	}
	f(n, false)
	return string(buf)
}

// findContentByLandmarks returns <main> elements, or <article> elements when
// there is no <main>.
func findContentByLandmarks(doc *html.Node) []*html.Node {
	for _, tag := range []atom.Atom{atom.Main, atom.Article} {
		if nodes := findAllByTag(doc, tag); len(nodes) > 0 {
			return nodes
		}
	}
	return nil
}

func findAllByTag(root *html.Node, tag atom.Atom) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == tag {
			results = append(results, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

// findBody returns the <body> element from a parsed document.
func findBody(doc *html.Node) *html.Node {
	nodes := findAllByTag(doc, atom.Body)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}
