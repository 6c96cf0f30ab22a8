package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IndexService embeds stored chunks and writes them to the vector store.
type IndexService interface {
	// IndexSource embeds the chunks of one source that have no embedding
	// yet and upserts every embedded chunk.
	// Returns domain.ErrNotFound if the source does not exist.
	IndexSource(ctx context.Context, sourceID string) (*domain.IndexStats, error)

	// IndexAll runs IndexSource for every stored source.
	IndexAll(ctx context.Context) ([]domain.IndexStats, error)

	// Reindex clears the vector store and rebuilds it from stored chunks.
	Reindex(ctx context.Context, opts domain.ReindexOptions) ([]domain.IndexStats, error)

	// DropChunks removes the vector records of the given chunk IDs, such
	// as the stale chunks reported by a replacing ingest.
	DropChunks(ctx context.Context, chunkIDs []string) error

	// VectorCount returns the number of records in the vector store.
	VectorCount(ctx context.Context) (int, error)
}
