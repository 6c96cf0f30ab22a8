package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// --- Mock implementations shared by the service tests ---

// mockEmbedder implements driven.EmbeddingService.
type mockEmbedder struct {
	mu         sync.Mutex
	dims       int
	err        error
	embedded   []string
	batchCalls int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.dims)
	for i, r := range text {
		v[i%m.dims] += float32(r % 7)
	}
	v[0]++
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.embedded = append(m.embedded, text)
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		m.embedded = append(m.embedded, t)
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error                 { return nil }
func (m *mockEmbedder) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.embedded...)
}

// mockVectorStore implements driven.VectorStore with scripted answers.
type mockVectorStore struct {
	mu        sync.Mutex
	dims      int
	matches   []domain.VectorMatch
	queryErr  error
	upsertErr error
	resetErr  error
	deleteErr error
	countErr  error
	count     int
	block     bool
	lastTopK  int
	upserts   [][]domain.VectorRecord
	resets    int
	deleted   []string
}

func (m *mockVectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, records)
	return nil
}

func (m *mockVectorStore) Query(ctx context.Context, _ []float32, topK int) ([]domain.VectorMatch, error) {
	m.mu.Lock()
	m.lastTopK = topK
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.matches, nil
}

func (m *mockVectorStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return m.resetErr
}

func (m *mockVectorStore) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ids...)
	return m.deleteErr
}

func (m *mockVectorStore) Count(_ context.Context) (int, error) { return m.count, m.countErr }
func (m *mockVectorStore) Dimensions() int                      { return m.dims }
func (m *mockVectorStore) Ping(_ context.Context) error         { return nil }
func (m *mockVectorStore) Close() error                         { return nil }

// mockSummarizer implements driven.CompletionBackend.
type mockSummarizer struct {
	mu       sync.Mutex
	response string
	err      error
	block    bool
	prompts  []string
}

func (m *mockSummarizer) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockSummarizer) Backend() string              { return "mock" }
func (m *mockSummarizer) ModelName() string            { return "mock-model" }
func (m *mockSummarizer) Ping(_ context.Context) error { return nil }
func (m *mockSummarizer) Close() error                 { return nil }
func (m *mockSummarizer) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	template string
	err      error
	reloads  int
}

func (m *mockPromptStore) Load(_ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.template, nil
}

func (m *mockPromptStore) Reload() { m.reloads++ }

// mockValidator implements driven.AIConfigValidator.
type mockValidator struct {
	embeddingErr  error
	summarizerErr error
	embedding     *domain.EmbeddingSettings
	summarizer    *domain.SummarizerSettings
}

func (m *mockValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedding = cfg
	return m.embeddingErr
}

func (m *mockValidator) ValidateSummarizer(cfg *domain.SummarizerSettings) error {
	m.summarizer = cfg
	return m.summarizerErr
}
