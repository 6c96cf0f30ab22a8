package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// GetChunks retrieves all chunks for a source in position order.
func (s *Store) GetChunks(_ context.Context, sourceID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sources[sourceID]; !ok {
		return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrNotFound)
	}
	result := []domain.Chunk{}
	for _, c := range s.chunks {
		if c.SourceID == sourceID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// SaveEmbedding records the embedding for a chunk.
func (s *Store) SaveEmbedding(_ context.Context, chunkID string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	c.Embedding = append([]float32(nil), embedding...)
	s.chunks[chunkID] = c
	return nil
}

// ClearEmbeddings removes every stored embedding.
func (s *Store) ClearEmbeddings(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.chunks {
		c.Embedding = nil
		s.chunks[id] = c
	}
	return nil
}
