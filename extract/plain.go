package extract

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// plainContainers are tried in order; the first with text wins.
var plainContainers = []string{"main", "article", "div.content", "#content", "body"}

// Plain is the generic markup-to-text extractor. It removes scripts and
// page chrome, then returns the whitespace-collapsed text of the first
// non-empty container. Short text is returned as is; only a page with no
// text at all yields ErrNoContent.
func Plain(body []byte, opts Options) (res *Result, err error) {
	defer recoverInto("plain", &err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	title := CollapseWhitespace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, template, nav, footer, header, aside, [hidden]").Remove()

	var text string
	for _, sel := range plainContainers {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if text = CollapseWhitespace(s.Text()); text != "" {
				break
			}
		}
	}
	if text == "" {
		// Fragments without <body> still carry text at the root.
		text = CollapseWhitespace(doc.Text())
	}
	if text == "" {
		return nil, ErrNoContent
	}
	return &Result{Title: title, Text: text}, nil
}
