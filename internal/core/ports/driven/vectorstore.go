package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorStore holds chunk embeddings and answers cosine similarity queries.
// It is a derived projection of ChunkStore and can be rebuilt with Reset.
//
// Network and service failures wrap domain.ErrVectorStoreUnavailable.
// Implementations never retry.
type VectorStore interface {
	// Upsert writes records, overwriting any existing record with the same ID.
	// An empty batch is a no-op. A record whose length differs from
	// Dimensions fails with domain.ErrInvalidParameter.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// Query returns up to topK matches ordered by descending similarity.
	// topK below 1 fails with domain.ErrInvalidParameter.
	// An empty index yields an empty slice.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error)

	// Delete removes the records with the given IDs. Unknown IDs and an
	// empty list are no-ops.
	Delete(ctx context.Context, ids []string) error

	// Reset removes every record.
	Reset(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the vector size the store accepts.
	Dimensions() int

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
