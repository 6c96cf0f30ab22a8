package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Normaliser extracts text, links and media from a raw page.
// Each normaliser handles specific MIME types (e.g., text/html).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// MIME-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise extracts a page. Chunking happens later in the ingest service.
	Normalise(ctx context.Context, raw *domain.RawPage) (*domain.ExtractedPage, error)
}
