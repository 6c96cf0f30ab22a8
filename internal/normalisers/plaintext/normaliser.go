package plaintext

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser passes plain text through unchanged apart from whitespace.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"application/json",
		"application/xml",
		"text/xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

var bareURL = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)

// Normalise returns the text with whitespace collapsed. Bare URLs become links.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawPage) (*domain.ExtractedPage, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil page", domain.ErrInvalidParameter)
	}

	content := string(raw.Content)

	links := normalisers.NewLinkSet()
	media := normalisers.NewMediaSet(raw.URL)
	for _, u := range bareURL.FindAllString(content, -1) {
		abs, ok := normalisers.ResolveLink(nil, strings.TrimRight(u, ".,;:"))
		if !ok {
			continue
		}
		links.Add(abs)
		if m, ok := normalisers.ClassifyLink(abs, ""); ok {
			media.Add(m)
		}
	}

	return &domain.ExtractedPage{
		Title:    normalisers.TitleFromName(raw.Filename, raw.URL),
		Text:     normalisers.CollapseWhitespace(content),
		Markdown: strings.TrimSpace(content),
		Links:    links.Items(),
		Media:    media.Items(),
	}, nil
}
