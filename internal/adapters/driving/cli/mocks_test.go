package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var (
	_ driving.SettingsService = (*mockSettingsService)(nil)
	_ driving.SourceService   = (*mockSourceService)(nil)
	_ driving.IngestService   = (*mockIngestService)(nil)
	_ driving.QueryService    = (*mockQueryService)(nil)
	_ driving.IndexService    = (*mockIndexService)(nil)
	_ driven.FileWatcher      = (*mockWatcher)(nil)
)

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	embedErr    error
	summErr     error
	vectorErr   error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetSummarizer(backend domain.SummarizerBackend, model, apiKey string) error {
	m.settings.Summarizer.Backend = backend
	m.settings.Summarizer.Model = model
	m.settings.Summarizer.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetVectorStore(vs domain.VectorStoreSettings) error {
	if m.vectorErr != nil {
		return m.vectorErr
	}
	m.settings.VectorStore = vs
	return nil
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.embedErr }
func (m *mockSettingsService) ValidateSummarizerConfig() error { return m.summErr }

// mockSourceService serves a fixed set of sources.
type mockSourceService struct {
	sources []domain.Source
	pages   map[string][]domain.Page
	chunks  map[string][]domain.Chunk
	media   map[string][]domain.Media
	listErr error
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	return m.sources, m.listErr
}

func (m *mockSourceService) Get(_ context.Context, id string) (*domain.Source, error) {
	for i := range m.sources {
		if m.sources[i].ID == id {
			s := m.sources[i]
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSourceService) Pages(_ context.Context, id string) ([]domain.Page, error) {
	return m.pages[id], nil
}

func (m *mockSourceService) Chunks(_ context.Context, id string) ([]domain.Chunk, error) {
	return m.chunks[id], nil
}

func (m *mockSourceService) Media(_ context.Context, id string) ([]domain.Media, error) {
	return m.media[id], nil
}

// mockIngestService records requests and returns a source per call. Keyed
// requests reuse the source of the first request with that key and report
// every chunk of it as stale.
type mockIngestService struct {
	mu       sync.Mutex
	requests []domain.IngestRequest
	keys     map[string]string
	err      error

	// afterIngest runs once a request has been handled.
	afterIngest func(req domain.IngestRequest)
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)

	id, replaced := m.keys[req.Key]
	if !replaced {
		id = fmt.Sprintf("src-%d", len(m.requests))
		if req.Key != "" {
			if m.keys == nil {
				m.keys = map[string]string{}
			}
			m.keys[req.Key] = id
		}
	}

	res := &domain.IngestResult{
		Source: domain.Source{
			ID:        id,
			Key:       req.Key,
			Type:      req.Type,
			BaseURL:   req.BaseURL,
			Title:     "Ingested",
			PageCount: len(req.Pages),
		},
		Replaced:      replaced,
		StaleChunkIDs: []string{},
	}
	if replaced {
		res.StaleChunkIDs = []string{id + "-c0"}
	}
	if m.afterIngest != nil {
		m.afterIngest(req)
	}
	return res, nil
}

func (m *mockIngestService) Requests() []domain.IngestRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.IngestRequest(nil), m.requests...)
}

// mockQueryService answers with a canned summary.
type mockQueryService struct {
	mu        sync.Mutex
	lastQuery string
	lastTopK  int
	err       error
}

func (m *mockQueryService) Query(_ context.Context, query string, topK int) (*domain.QueryResult, error) {
	m.mu.Lock()
	m.lastQuery = query
	m.lastTopK = topK
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if strings.Contains(query, "nothing") {
		return &domain.QueryResult{
			Query:   query,
			Summary: domain.NoResultsSummary,
			Stage:   domain.StageNoResults,
		}, nil
	}
	return &domain.QueryResult{
		Query:        query,
		Summary:      "Acme sells anvils.",
		TotalResults: 3,
		Backend:      domain.SummarizerOllama,
		Stage:        domain.StageDone,
		Sources:      []string{"src-1", "src-2"},
	}, nil
}

func (m *mockQueryService) Backend() domain.SummarizerBackend {
	return domain.SummarizerOllama
}

// mockIndexService records which sources were indexed.
type mockIndexService struct {
	mu       sync.Mutex
	indexed  []string
	dropped  []string
	forced   bool
	err      error
	countErr error
	empty    bool
}

func (m *mockIndexService) IndexSource(_ context.Context, sourceID string) (*domain.IndexStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.indexed = append(m.indexed, sourceID)
	return &domain.IndexStats{SourceID: sourceID, Chunks: 4, Embedded: 3, Skipped: 1, Upserted: 3}, nil
}

func (m *mockIndexService) IndexAll(ctx context.Context) ([]domain.IndexStats, error) {
	if m.empty {
		return nil, nil
	}
	s, err := m.IndexSource(ctx, "src-1")
	if err != nil {
		return nil, err
	}
	return []domain.IndexStats{*s}, nil
}

func (m *mockIndexService) Reindex(ctx context.Context, opts domain.ReindexOptions) ([]domain.IndexStats, error) {
	m.mu.Lock()
	m.forced = opts.Force
	m.mu.Unlock()
	return m.IndexAll(ctx)
}

func (m *mockIndexService) DropChunks(_ context.Context, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped = append(m.dropped, chunkIDs...)
	return nil
}

func (m *mockIndexService) VectorCount(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.indexed) * 3, nil
}

func (m *mockIndexService) Dropped() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dropped...)
}

func (m *mockIndexService) Indexed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.indexed...)
}

// mockPromptStore counts reloads.
type mockPromptStore struct {
	mu      sync.Mutex
	dir     string
	reloads int
}

func (m *mockPromptStore) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
}

func (m *mockPromptStore) Dir() string { return m.dir }

func (m *mockPromptStore) Reloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloads
}

// mockWatcher replays a fixed list of events and then closes.
type mockWatcher struct {
	events []driven.FileEvent
	dirs   []string
	closed bool
}

func (m *mockWatcher) Watch(_ context.Context, dirs ...string) (<-chan driven.FileEvent, error) {
	m.dirs = dirs
	ch := make(chan driven.FileEvent, len(m.events))
	for _, ev := range m.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (m *mockWatcher) Close() error {
	m.closed = true
	return nil
}

// testServices bundles the mocks injected by setupTestServices.
type testServices struct {
	settings *mockSettingsService
	sources  *mockSourceService
	ingest   *mockIngestService
	query    *mockQueryService
	index    *mockIndexService
	prompts  *mockPromptStore

	engineErr      error
	withSummarizer []bool
}

var errEngineClosed = errors.New("engine already closed")

// setupTestServices injects mock services and returns a cleanup function.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		settings: newMockSettingsService(),
		sources: &mockSourceService{
			sources: []domain.Source{
				{
					ID:        "src-1",
					Type:      "website",
					BaseURL:   "https://acme.test",
					Title:     "Acme",
					PageCount: 2,
					CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
				},
			},
			pages: map[string][]domain.Page{
				"src-1": {
					{ID: "p1", SourceID: "src-1", URL: "https://acme.test"},
					{ID: "p2", SourceID: "src-1", URL: "https://acme.test/about"},
				},
			},
			chunks: map[string][]domain.Chunk{
				"src-1": {
					{ID: "c1", SourceID: "src-1", Embedding: []float32{1}},
					{ID: "c2", SourceID: "src-1"},
				},
			},
			media: map[string][]domain.Media{
				"src-1": {
					{ID: "m1", SourceID: "src-1", URL: "https://acme.test/logo.png", Type: domain.MediaImage, MetaInfo: "logo"},
				},
			},
		},
		ingest:  &mockIngestService{},
		query:   &mockQueryService{},
		index:   &mockIndexService{},
		prompts: &mockPromptStore{},
	}

	SetServices(&Services{
		Settings: ts.settings,
		Source:   ts.sources,
		Ingest:   ts.ingest,
		Prompts:  ts.prompts,
		Engine: func(_ context.Context, withSummarizer bool) (*Engine, error) {
			ts.withSummarizer = append(ts.withSummarizer, withSummarizer)
			if ts.engineErr != nil {
				return nil, ts.engineErr
			}
			closed := false
			return &Engine{
				Query: ts.query,
				Index: ts.index,
				Close: func() error {
					if closed {
						return errEngineClosed
					}
					closed = true
					return nil
				},
			}, nil
		},
	})

	oldBootstrap := bootstrap
	bootstrap = nil

	return ts, func() {
		SetServices(nil)
		bootstrap = oldBootstrap
	}
}
