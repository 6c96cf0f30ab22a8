package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestService turns captured pages into a source with pages, media and chunks.
type IngestService interface {
	// Ingest extracts and chunks a batch of pages and stores them as one
	// source. A request with a Key replaces the source stored under that
	// key. Chunks are stored without embeddings; IndexService embeds them
	// later. Nothing is stored when any page fails.
	// An empty request fails with domain.ErrInvalidParameter.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)
}
