package extract

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

var (
	mdOnce      sync.Once
	mdConverter *converter.Converter
)

func markdownConverter() *converter.Converter {
	mdOnce.Do(func() {
		mdConverter = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		)
	})
	return mdConverter
}

// Article runs structured article extraction on an HTML document.
// It returns ErrInsufficientContent when the main content is shorter than
// the minimum length, so that callers can fall back to Plain.
func Article(body []byte, opts Options) (res *Result, err error) {
	defer recoverInto("article", &err)

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	minLen := opts.minLen()
	nodes := contentNodes(doc, minLen)
	if len(nodes) == 0 {
		return nil, ErrInsufficientContent
	}

	var text string
	switch opts.Format {
	case FormatMarkdown:
		text, err = toMarkdown(nodes, opts.PageURL)
		if err != nil {
			return nil, err
		}
	default:
		parts := make([]string, 0, len(nodes))
		for _, n := range nodes {
			parts = append(parts, collectText(n))
		}
		text = CleanText(strings.Join(parts, "\n\n"))
	}
	if utf8.RuneCountInString(text) < minLen {
		return nil, ErrInsufficientContent
	}

	meta := readMetadata(body, doc)
	return &Result{
		Title:       meta.title,
		Text:        text,
		Description: meta.description,
		SiteName:    meta.siteName,
		PublishDate: meta.publishDate,
		Authors:     meta.authors,
	}, nil
}

func toMarkdown(nodes []*html.Node, pageURL string) (string, error) {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(renderNode(n))
		sb.WriteByte('\n')
	}
	conv := markdownConverter()
	var md string
	var err error
	if pageURL != "" {
		md, err = conv.ConvertString(sb.String(), converter.WithDomain(pageURL))
	} else {
		md, err = conv.ConvertString(sb.String())
	}
	if err != nil {
		return "", fmt.Errorf("extract: markdown: %w", err)
	}
	// Markdown keeps its own indentation; only blank-line runs are squeezed.
	return strings.TrimSpace(newlineRun.ReplaceAllString(md, "\n\n")), nil
}
