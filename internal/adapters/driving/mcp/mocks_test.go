package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result    *domain.QueryResult
	err       error
	lastQuery string
	lastTopK  int
}

func (m *mockQueryService) Query(_ context.Context, query string, topK int) (*domain.QueryResult, error) {
	m.lastQuery = query
	m.lastTopK = topK
	return m.result, m.err
}

func (m *mockQueryService) Backend() domain.SummarizerBackend {
	return domain.SummarizerOllama
}

// mockSourceService is a mock implementation of driving.SourceService.
type mockSourceService struct {
	sources []domain.Source
	chunks  []domain.Chunk
	media   []domain.Media
	err     error
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	return m.sources, m.err
}

func (m *mockSourceService) Get(_ context.Context, _ string) (*domain.Source, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sources) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.sources[0], nil
}

func (m *mockSourceService) Pages(_ context.Context, _ string) ([]domain.Page, error) {
	return nil, m.err
}

func (m *mockSourceService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockSourceService) Media(_ context.Context, _ string) ([]domain.Media, error) {
	return m.media, m.err
}
