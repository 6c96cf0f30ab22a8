package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SourceStore persists sources with their pages, media and chunks.
type SourceStore interface {
	// Replace writes a source with its pages, media and chunks in one
	// unit. Pages, media and chunks already stored under the source ID are
	// removed first. It returns the IDs of the removed chunks that the new
	// content does not keep. Items naming another source fail the whole
	// call with domain.ErrInvalidParameter and nothing is written.
	Replace(ctx context.Context, content domain.SourceContent) ([]string, error)

	// Get retrieves a source by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// FindByKey returns the newest source stored under key.
	// Returns domain.ErrNotFound if there is none.
	FindByKey(ctx context.Context, key string) (*domain.Source, error)

	// List returns all sources, newest first.
	List(ctx context.Context) ([]domain.Source, error)

	// GetPages returns the pages of a source.
	GetPages(ctx context.Context, sourceID string) ([]domain.Page, error)

	// ListMedia returns the media links of a source.
	ListMedia(ctx context.Context, sourceID string) ([]domain.Media, error)
}
