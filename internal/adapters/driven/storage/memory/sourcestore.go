package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var (
	_ driven.SourceStore = (*Store)(nil)
	_ driven.ChunkStore  = (*Store)(nil)
)

// Store keeps sources, pages, media and chunks in maps behind one lock, so
// a Replace is seen whole or not at all. It follows the same rules as the
// SQLite store: the first creation time of a source survives a replace,
// and a media URL is recorded once per source.
type Store struct {
	mu      sync.RWMutex
	sources map[string]domain.Source
	pages   map[string][]domain.Page
	media   map[string][]domain.Media
	chunks  map[string]domain.Chunk
}

func NewStore() *Store {
	return &Store{
		sources: map[string]domain.Source{},
		pages:   map[string][]domain.Page{},
		media:   map[string][]domain.Media{},
		chunks:  map[string]domain.Chunk{},
	}
}

// Replace swaps in content for its source.
func (s *Store) Replace(_ context.Context, content domain.SourceContent) ([]string, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	source := content.Source
	for _, c := range content.Chunks {
		if old, ok := s.chunks[c.ID]; ok && old.SourceID != source.ID {
			return nil, fmt.Errorf("%w: chunk %s belongs to source %s", domain.ErrInvalidParameter, c.ID, old.SourceID)
		}
	}

	now := time.Now().UTC()
	if prev, ok := s.sources[source.ID]; ok {
		source.CreatedAt = prev.CreatedAt
	} else if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now
	source.InternalLinks = slices.Clone(source.InternalLinks)
	s.sources[source.ID] = source

	s.pages[source.ID] = slices.Clone(content.Pages)

	var media []domain.Media
	for _, m := range content.Media {
		if !slices.ContainsFunc(media, func(old domain.Media) bool { return old.URL == m.URL }) {
			media = append(media, m)
		}
	}
	s.media[source.ID] = media

	var previous []string
	for id, c := range s.chunks {
		if c.SourceID == source.ID {
			previous = append(previous, id)
			delete(s.chunks, id)
		}
	}
	slices.Sort(previous)
	for _, c := range content.Chunks {
		c.Embedding = slices.Clone(c.Embedding)
		if len(c.Embedding) == 0 {
			c.Embedding = nil
		}
		s.chunks[c.ID] = c
	}
	return content.StaleChunkIDs(previous), nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	source, ok := s.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

func (s *Store) FindByKey(ctx context.Context, key string) (*domain.Source, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, source := range all {
		if source.Key == key {
			return &source, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all sources, newest first, with ties broken by ID.
func (s *Store) List(_ context.Context) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Source, 0, len(s.sources))
	for _, source := range s.sources {
		all = append(all, source)
	}
	slices.SortFunc(all, func(a, b domain.Source) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return all, nil
}

// GetPages returns the pages of a source in insertion order.
func (s *Store) GetPages(_ context.Context, sourceID string) ([]domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.pages[sourceID]), nil
}

// ListMedia returns the media links of a source in discovery order.
func (s *Store) ListMedia(_ context.Context, sourceID string) ([]domain.Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.media[sourceID]), nil
}
