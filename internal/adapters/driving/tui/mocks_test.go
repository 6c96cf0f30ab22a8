package tui

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	QueryFunc func(ctx context.Context, query string, topK int) (*domain.QueryResult, error)
}

func (m *MockQueryService) Query(ctx context.Context, query string, topK int) (*domain.QueryResult, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, topK)
	}
	return &domain.QueryResult{Query: query, Summary: domain.NoResultsSummary, Stage: domain.StageNoResults}, nil
}

func (m *MockQueryService) Backend() domain.SummarizerBackend {
	return domain.SummarizerOllama
}

// MockSourceService implements driving.SourceService for testing.
type MockSourceService struct {
	ListFunc func(ctx context.Context) ([]domain.Source, error)
}

func (m *MockSourceService) List(ctx context.Context) ([]domain.Source, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockSourceService) Get(_ context.Context, _ string) (*domain.Source, error) {
	return nil, domain.ErrNotFound
}

func (m *MockSourceService) Pages(_ context.Context, _ string) ([]domain.Page, error) {
	return []domain.Page{{ID: "p1"}}, nil
}

func (m *MockSourceService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return []domain.Chunk{{ID: "c1"}, {ID: "c2", Embedding: []float32{1}}}, nil
}

func (m *MockSourceService) Media(_ context.Context, _ string) ([]domain.Media, error) {
	return nil, nil
}

// MockIndexService implements driving.IndexService for testing.
type MockIndexService struct {
	Indexed []string
}

func (m *MockIndexService) IndexSource(_ context.Context, sourceID string) (*domain.IndexStats, error) {
	m.Indexed = append(m.Indexed, sourceID)
	return &domain.IndexStats{SourceID: sourceID, Chunks: 2, Embedded: 1, Upserted: 2}, nil
}

func (m *MockIndexService) IndexAll(_ context.Context) ([]domain.IndexStats, error) {
	return nil, nil
}

func (m *MockIndexService) Reindex(_ context.Context, _ domain.ReindexOptions) ([]domain.IndexStats, error) {
	return nil, nil
}

func (m *MockIndexService) DropChunks(_ context.Context, _ []string) error {
	return nil
}

func (m *MockIndexService) VectorCount(_ context.Context) (int, error) {
	return 0, nil
}
