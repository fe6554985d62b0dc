package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"golang.org/x/net/html"
)

type metadata struct {
	title       string
	description string
	siteName    string
	publishDate string
	authors     []string
}

var publishDateSelectors = []struct{ sel, attr string }{
	{`meta[property="article:published_time"]`, "content"},
	{`meta[itemprop="datePublished"]`, "content"},
	{`meta[name="date"]`, "content"},
	{`meta[name="pubdate"]`, "content"},
	{`time[datetime]`, "datetime"},
}

// readMetadata collects title, description and byline. OpenGraph tags take
// precedence; plain <title>/<h1> and meta tags fill the gaps.
func readMetadata(body []byte, doc *html.Node) metadata {
	var m metadata

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err == nil {
		m.title = CollapseWhitespace(og.Title)
		m.description = CollapseWhitespace(og.Description)
		m.siteName = CollapseWhitespace(og.SiteName)
	}

	q := goquery.NewDocumentFromNode(doc)
	if m.title == "" {
		m.title = CollapseWhitespace(q.Find("title").First().Text())
	}
	if m.title == "" {
		m.title = CollapseWhitespace(q.Find("h1").First().Text())
	}
	if m.description == "" {
		m.description = CollapseWhitespace(q.Find(`meta[name="description"]`).AttrOr("content", ""))
	}

	for _, s := range publishDateSelectors {
		if v := strings.TrimSpace(q.Find(s.sel).First().AttrOr(s.attr, "")); v != "" {
			m.publishDate = v
			break
		}
	}

	seen := map[string]bool{}
	addAuthor := func(name string) {
		name = CollapseWhitespace(name)
		if name == "" || strings.HasPrefix(name, "http") || seen[strings.ToLower(name)] {
			return
		}
		seen[strings.ToLower(name)] = true
		m.authors = append(m.authors, name)
	}
	q.Find(`meta[name="author"], meta[property="article:author"]`).Each(func(_ int, s *goquery.Selection) {
		addAuthor(s.AttrOr("content", ""))
	})
	q.Find(`[rel="author"]`).Each(func(_ int, s *goquery.Selection) {
		addAuthor(s.Text())
	})
	return m
}
