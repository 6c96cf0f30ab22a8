package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ChunkStore reads chunks and records their embeddings. Chunks are written
// with their source through SourceStore.Replace.
// It is the system of record the vector store is derived from.
type ChunkStore interface {
	// GetChunks retrieves all chunks for a source in position order.
	// Returns domain.ErrNotFound if the source does not exist.
	GetChunks(ctx context.Context, sourceID string) ([]domain.Chunk, error)

	// SaveEmbedding records the embedding for a chunk.
	// Returns domain.ErrNotFound if the chunk does not exist.
	SaveEmbedding(ctx context.Context, chunkID string, embedding []float32) error

	// ClearEmbeddings removes every stored embedding.
	ClearEmbeddings(ctx context.Context) error
}
