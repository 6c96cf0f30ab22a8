package html

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML pages.
type Normaliser struct {
	converter *md.Converter
}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{
		converter: md.NewConverter("", true, nil),
	}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts title, text, links and media from an HTML page.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawPage) (*domain.ExtractedPage, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil page", domain.ErrInvalidParameter)
	}

	rawHTML := string(raw.Content)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	markdown, err := n.converter.ConvertString(rawHTML)
	if err != nil {
		return nil, fmt.Errorf("convert html to markdown: %w", err)
	}

	base := normalisers.ParseBase(raw.URL)

	page := &domain.ExtractedPage{
		Title:    extractTitle(doc, raw),
		Markdown: strings.TrimSpace(markdown),
		Links:    extractLinks(doc, base),
		Media:    extractMedia(doc, base, raw.URL),
	}

	// Text last: removing script and style nodes mutates the document.
	doc.Find("script, style, noscript, template").Remove()
	page.Text = normalisers.CollapseWhitespace(visibleText(doc.Find("body")))

	return page, nil
}

// visibleText joins text nodes with spaces so adjacent blocks such as
// "<h1>A</h1><p>B</p>" read "A B" rather than "AB".
func visibleText(sel *goquery.Selection) string {
	var parts []string
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			parts = append(parts, s.Text())
			return
		}
		parts = append(parts, visibleText(s))
	})
	return strings.Join(parts, " ")
}

// extractTitle uses <title>, then the first <h1>, then the file name.
func extractTitle(doc *goquery.Document, raw *domain.RawPage) string {
	if t := normalisers.CollapseWhitespace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if h := normalisers.CollapseWhitespace(doc.Find("h1").First().Text()); h != "" {
		return h
	}
	return normalisers.TitleFromName(raw.Filename, raw.URL)
}

func extractLinks(doc *goquery.Document, base *url.URL) []string {
	links := normalisers.NewLinkSet()

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if abs, ok := normalisers.ResolveLink(base, href); ok {
			links.Add(abs)
		}
	})

	return links.Items()
}

// extractMedia finds images, PDF links and social profile links.
func extractMedia(doc *goquery.Document, base *url.URL, pageURL string) []domain.Media {
	media := normalisers.NewMediaSet(pageURL)

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		abs, ok := normalisers.ResolveLink(base, src)
		if !ok {
			return
		}
		alt, _ := s.Attr("alt")
		media.Add(domain.Media{URL: abs, Type: domain.MediaImage, MetaInfo: strings.TrimSpace(alt)})
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, ok := normalisers.ResolveLink(base, href)
		if !ok {
			return
		}
		if m, ok := normalisers.ClassifyLink(abs, normalisers.CollapseWhitespace(s.Text())); ok {
			media.Add(m)
		}
	})

	return media.Items()
}
