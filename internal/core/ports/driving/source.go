package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SourceService provides read-only views over ingested sources.
type SourceService interface {
	// List returns all sources, newest first.
	List(ctx context.Context) ([]domain.Source, error)

	// Get retrieves a source by ID.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// Pages returns the extracted pages of a source.
	Pages(ctx context.Context, sourceID string) ([]domain.Page, error)

	// Chunks returns the chunks of a source in position order.
	Chunks(ctx context.Context, sourceID string) ([]domain.Chunk, error)

	// Media returns the media links found on a source's pages.
	Media(ctx context.Context, sourceID string) ([]domain.Media, error)
}
