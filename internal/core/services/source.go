package services

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// SourceService exposes stored sources with their pages, chunks and media.
type SourceService struct {
	sourceStore driven.SourceStore
	chunkStore  driven.ChunkStore
}

// NewSourceService creates a new source service.
func NewSourceService(sourceStore driven.SourceStore, chunkStore driven.ChunkStore) *SourceService {
	return &SourceService{
		sourceStore: sourceStore,
		chunkStore:  chunkStore,
	}
}

// List returns all sources, newest first.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	return s.sourceStore.List(ctx)
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	return s.sourceStore.Get(ctx, id)
}

// Pages returns the extracted pages of a source.
func (s *SourceService) Pages(ctx context.Context, sourceID string) ([]domain.Page, error) {
	if _, err := s.sourceStore.Get(ctx, sourceID); err != nil {
		return nil, err
	}
	return s.sourceStore.GetPages(ctx, sourceID)
}

// Chunks returns the chunks of a source in position order.
func (s *SourceService) Chunks(ctx context.Context, sourceID string) ([]domain.Chunk, error) {
	return s.chunkStore.GetChunks(ctx, sourceID)
}

// Media returns the media links found on a source's pages.
func (s *SourceService) Media(ctx context.Context, sourceID string) ([]domain.Media, error) {
	if _, err := s.sourceStore.Get(ctx, sourceID); err != nil {
		return nil, err
	}
	return s.sourceStore.ListMedia(ctx, sourceID)
}
