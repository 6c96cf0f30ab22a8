package markdown

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown pages.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips markdown syntax for the text and keeps the source as Markdown.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawPage) (*domain.ExtractedPage, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil page", domain.ErrInvalidParameter)
	}

	content := string(raw.Content)
	base := normalisers.ParseBase(raw.URL)

	return &domain.ExtractedPage{
		Title:    extractTitle(content, raw),
		Text:     normalisers.CollapseWhitespace(stripMarkdown(content)),
		Markdown: strings.TrimSpace(content),
		Links:    extractLinks(content, base),
		Media:    extractMedia(content, base, raw.URL),
	}, nil
}

// Pre-compiled regular expressions for markdown parsing.
var (
	headingLine  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+(.+?)\s*#*\s*$`)
	codeFence    = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	imageRef     = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)[^)]*\)`)
	linkRef      = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)[^)]*\)`)
	headingMark  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquote   = regexp.MustCompile(`(?m)^>\s*`)
	horizontal   = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarker   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	emphasis     = regexp.MustCompile(`\*\*([^*]+)\*\*|\*([^*\s][^*]*)\*|__([^_]+)__`)
	bareURL      = regexp.MustCompile(`https?://[^\s<>()\[\]"]+`)
)

// extractTitle uses the first heading, falling back to the file name.
func extractTitle(content string, raw *domain.RawPage) string {
	if m := headingLine.FindStringSubmatch(content); len(m) > 1 {
		if title := strings.TrimSpace(m[1]); title != "" {
			return title
		}
	}
	return normalisers.TitleFromName(raw.Filename, raw.URL)
}

// stripMarkdown removes common markdown formatting, keeping link text and code.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllStringFunc(content, func(block string) string {
		return strings.Trim(block, "`")
	})
	content = imageRef.ReplaceAllString(content, "$1")
	content = linkRef.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = headingMark.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = listMarker.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$1$2$3")
	return strings.TrimSpace(content)
}

func extractLinks(content string, base *url.URL) []string {
	links := normalisers.NewLinkSet()

	for _, m := range linkRef.FindAllStringSubmatchIndex(content, -1) {
		// Skip image references, which share the link syntax after "!".
		if m[0] > 0 && content[m[0]-1] == '!' {
			continue
		}
		if abs, ok := normalisers.ResolveLink(base, content[m[4]:m[5]]); ok {
			links.Add(abs)
		}
	}
	for _, raw := range bareURL.FindAllString(content, -1) {
		if abs, ok := normalisers.ResolveLink(nil, raw); ok {
			links.Add(abs)
		}
	}

	return links.Items()
}

func extractMedia(content string, base *url.URL, pageURL string) []domain.Media {
	media := normalisers.NewMediaSet(pageURL)

	for _, m := range imageRef.FindAllStringSubmatch(content, -1) {
		if abs, ok := normalisers.ResolveLink(base, m[2]); ok {
			media.Add(domain.Media{URL: abs, Type: domain.MediaImage, MetaInfo: strings.TrimSpace(m[1])})
		}
	}
	for _, m := range linkRef.FindAllStringSubmatch(content, -1) {
		abs, ok := normalisers.ResolveLink(base, m[2])
		if !ok {
			continue
		}
		if item, ok := normalisers.ClassifyLink(abs, strings.TrimSpace(m[1])); ok {
			media.Add(item)
		}
	}

	return media.Items()
}
