// Package web turns fetched HTML pages into cleaned plain text.
package web

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/cleaning"
)

var skipElements = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "nav": {}, "footer": {}, "header": {},
}

type Extractor struct {
	fetcher ports.Fetcher
}

func NewExtractor(fetcher ports.Fetcher) *Extractor {
	return &Extractor{fetcher: fetcher}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	raw, err := e.fetcher.Fetch(ctx, doc.SourceURI, doc.Lang)
	if err != nil {
		return "", fmt.Errorf("fetch source: %w", err)
	}
	text, err := Text(raw)
	if err != nil {
		return "", err
	}
	return cleaning.FilterSentences(cleaning.Clean(text)), nil
}

// Text flattens an HTML document to its visible text.
func Text(rawHTML string) (string, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipElements[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String(), nil
}
