package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyEmbedRPS      = "embedding.requests_per_second"

	keySummBackend   = "summarizer.backend"
	keySummModel     = "summarizer.model"
	keySummBaseURL   = "summarizer.base_url"
	keySummAPIKey    = "summarizer.api_key"
	keySummMaxTokens = "summarizer.max_tokens"

	keyVSProvider   = "vector_store.provider"
	keyVSIndex      = "vector_store.index"
	keyVSNamespace  = "vector_store.namespace"
	keyVSDimensions = "vector_store.dimensions"
	keyVSURL        = "vector_store.url"
	keyVSAPIKey     = "vector_store.api_key"
	keyVSCloud      = "vector_store.cloud"
	keyVSRegion     = "vector_store.region"
	keyVSSnapshot   = "vector_store.snapshot"

	keyChunkSize    = "chunker.chunk_size"
	keyChunkOverlap = "chunker.overlap"

	keyTopK               = "pipeline.top_k"
	keyVectorStoreTimeout = "pipeline.vector_store_timeout"
	keySummarizerTimeout  = "pipeline.summarizer_timeout"
)

// Environment variables that fill empty credential and URL keys.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvPineconeAPIKey  = "PINECONE_API_KEY"
	EnvRedisURL        = "REDIS_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// defaultOllamaURL is set for local providers that have no base URL yet.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// aiValidator may be nil, in which case connectivity checks are skipped.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Empty keys take their
// default, and empty credentials are filled from the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.AIProvider(s.getString(keyEmbedProvider, defaults.Embedding.Provider.String())),
			Model:             s.configStore.GetString(keyEmbedModel),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
		Summarizer: domain.SummarizerSettings{
			Backend:   domain.SummarizerBackend(s.getString(keySummBackend, defaults.Summarizer.Backend.String())),
			Model:     s.configStore.GetString(keySummModel),
			BaseURL:   s.configStore.GetString(keySummBaseURL),
			APIKey:    s.configStore.GetString(keySummAPIKey),
			MaxTokens: s.getInt(keySummMaxTokens, defaults.Summarizer.MaxTokens),
		},
		VectorStore: domain.VectorStoreSettings{
			Provider:   domain.VectorStoreProvider(s.getString(keyVSProvider, defaults.VectorStore.Provider.String())),
			Index:      s.getString(keyVSIndex, defaults.VectorStore.Index),
			Namespace:  s.configStore.GetString(keyVSNamespace),
			Dimensions: s.getInt(keyVSDimensions, defaults.VectorStore.Dimensions),
			URL:        s.configStore.GetString(keyVSURL),
			APIKey:     s.configStore.GetString(keyVSAPIKey),
			Cloud:      s.getString(keyVSCloud, defaults.VectorStore.Cloud),
			Region:     s.getString(keyVSRegion, defaults.VectorStore.Region),
			Snapshot:   s.configStore.GetString(keyVSSnapshot),
		},
		Chunker: domain.ChunkerSettings{
			ChunkSize: s.getInt(keyChunkSize, defaults.Chunker.ChunkSize),
			Overlap:   s.getIntAllowZero(keyChunkOverlap, defaults.Chunker.Overlap),
		},
		Pipeline: domain.PipelineSettings{
			TopK:               s.getInt(keyTopK, defaults.Pipeline.TopK),
			VectorStoreTimeout: s.getDuration(keyVectorStoreTimeout, defaults.Pipeline.VectorStoreTimeout),
			SummarizerTimeout:  s.getDuration(keySummarizerTimeout, defaults.Pipeline.SummarizerTimeout),
		},
	}

	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.Summarizer.Model == "" {
		settings.Summarizer.Model = domain.DefaultSummarizerModels()[settings.Summarizer.Backend]
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv fills empty credentials and URLs from the environment.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envForEmbedding(settings.Embedding.Provider)
	}
	if settings.Summarizer.APIKey == "" {
		settings.Summarizer.APIKey = s.envForSummarizer(settings.Summarizer.Backend)
	}
	if settings.VectorStore.APIKey == "" && settings.VectorStore.Provider == domain.VectorStorePinecone {
		settings.VectorStore.APIKey = s.getenv(EnvPineconeAPIKey)
	}
	if settings.VectorStore.URL == "" {
		settings.VectorStore.URL = s.envForVectorStoreURL(settings.VectorStore.Provider)
	}
}

func (s *SettingsService) envForEmbedding(provider domain.AIProvider) string {
	if provider == domain.AIProviderOpenAI {
		return s.getenv(EnvOpenAIAPIKey)
	}
	return ""
}

func (s *SettingsService) envForSummarizer(backend domain.SummarizerBackend) string {
	switch backend {
	case domain.SummarizerOpenAI:
		return s.getenv(EnvOpenAIAPIKey)
	case domain.SummarizerAnthropic:
		return s.getenv(EnvAnthropicAPIKey)
	default:
		return ""
	}
}

func (s *SettingsService) envForVectorStoreURL(provider domain.VectorStoreProvider) string {
	switch provider {
	case domain.VectorStoreRedis:
		return s.getenv(EnvRedisURL)
	case domain.VectorStorePgvector:
		return s.getenv(EnvDatabaseURL)
	default:
		return ""
	}
}

// Save persists application settings. Credentials equal to their
// environment value are not written, so secrets stay in the environment.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keySummBackend, settings.Summarizer.Backend.String()},
		{keySummModel, settings.Summarizer.Model},
		{keySummBaseURL, settings.Summarizer.BaseURL},
		{keySummMaxTokens, settings.Summarizer.MaxTokens},
		{keyVSProvider, settings.VectorStore.Provider.String()},
		{keyVSIndex, settings.VectorStore.Index},
		{keyVSNamespace, settings.VectorStore.Namespace},
		{keyVSDimensions, settings.VectorStore.Dimensions},
		{keyVSCloud, settings.VectorStore.Cloud},
		{keyVSRegion, settings.VectorStore.Region},
		{keyVSSnapshot, settings.VectorStore.Snapshot},
		{keyChunkSize, settings.Chunker.ChunkSize},
		{keyChunkOverlap, settings.Chunker.Overlap},
		{keyTopK, settings.Pipeline.TopK},
		{keyVectorStoreTimeout, settings.Pipeline.VectorStoreTimeout.String()},
		{keySummarizerTimeout, settings.Pipeline.SummarizerTimeout.String()},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct {
		key   string
		value string
		env   string
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey, s.envForEmbedding(settings.Embedding.Provider)},
		{keySummAPIKey, settings.Summarizer.APIKey, s.envForSummarizer(settings.Summarizer.Backend)},
		{keyVSAPIKey, settings.VectorStore.APIKey, s.getenv(EnvPineconeAPIKey)},
		{keyVSURL, settings.VectorStore.URL, s.envForVectorStoreURL(settings.VectorStore.Provider)},
	}
	for _, sec := range secrets {
		if sec.value == sec.env {
			continue
		}
		if err := s.configStore.Set(sec.key, sec.value); err != nil {
			return fmt.Errorf("save %s: %w", sec.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" {
		apiKey = s.envForEmbedding(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidConfiguration, provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	switch {
	case provider == domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	default:
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	// Ollama models have a fixed output size. OpenAI text-embedding-3
	// models are shortened to whatever the store is configured for.
	if provider == domain.AIProviderOllama {
		if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
			settings.VectorStore.Dimensions = d
		}
	}

	return s.Save(settings)
}

// SetSummarizer configures the summarizer backend.
func (s *SettingsService) SetSummarizer(backend domain.SummarizerBackend, model, apiKey string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: unknown summarizer backend %q", domain.ErrInvalidConfiguration, backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" {
		apiKey = s.envForSummarizer(backend)
	}
	if backend.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidConfiguration, backend)
	}

	settings.Summarizer.Backend = backend
	settings.Summarizer.Model = model
	if model == "" {
		settings.Summarizer.Model = domain.DefaultSummarizerModels()[backend]
	}

	if backend.IsHosted() {
		settings.Summarizer.BaseURL = ""
	} else if settings.Summarizer.BaseURL == "" {
		settings.Summarizer.BaseURL = defaultOllamaURL
	}
	settings.Summarizer.APIKey = apiKey

	return s.Save(settings)
}

// SetVectorStore configures the vector store. Empty fields keep their defaults.
func (s *SettingsService) SetVectorStore(vs domain.VectorStoreSettings) error {
	if !vs.Provider.IsValid() {
		return fmt.Errorf("%w: unknown vector store %q", domain.ErrInvalidConfiguration, vs.Provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	defaults := domain.DefaultAppSettings().VectorStore
	if vs.Index == "" {
		vs.Index = defaults.Index
	}
	if vs.Dimensions <= 0 {
		vs.Dimensions = settings.VectorStore.Dimensions
	}
	if vs.Cloud == "" {
		vs.Cloud = defaults.Cloud
	}
	if vs.Region == "" {
		vs.Region = defaults.Region
	}

	settings.VectorStore = vs
	s.applyEnv(settings)

	if !settings.VectorStore.IsConfigured() {
		return fmt.Errorf("%w: vector store %s needs %s", domain.ErrInvalidConfiguration, vs.Provider, missingVectorStoreField(vs.Provider))
	}

	return s.Save(settings)
}

func missingVectorStoreField(p domain.VectorStoreProvider) string {
	switch {
	case p.RequiresAPIKey():
		return "an API key (or " + EnvPineconeAPIKey + ")"
	case p == domain.VectorStoreRedis:
		return "a URL (or " + EnvRedisURL + ")"
	case p == domain.VectorStorePgvector:
		return "a URL (or " + EnvDatabaseURL + ")"
	default:
		return "positive dimensions"
	}
}

// Validate checks that the current settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var problems []string
	if !settings.Embedding.IsConfigured() {
		problems = append(problems, fmt.Sprintf("embedding provider %q is not configured", settings.Embedding.Provider))
	}
	if !settings.Summarizer.Backend.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown summarizer backend %q", settings.Summarizer.Backend))
	} else if !settings.Summarizer.IsConfigured() {
		problems = append(problems, fmt.Sprintf("summarizer backend %s requires an API key", settings.Summarizer.Backend))
	}
	if !settings.VectorStore.IsConfigured() {
		problems = append(problems, fmt.Sprintf("vector store %q is not configured", settings.VectorStore.Provider))
	}
	if c := settings.Chunker; c.ChunkSize <= 0 || c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		problems = append(problems, fmt.Sprintf("chunk overlap %d must be in [0, %d)", c.Overlap, c.ChunkSize))
	}
	if settings.Pipeline.TopK < 1 {
		problems = append(problems, "top_k must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateSummarizerConfig validates the current summarizer configuration by pinging the backend.
func (s *SettingsService) ValidateSummarizerConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateSummarizer(&settings.Summarizer)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("Ignoring invalid duration %s = %q", key, raw)
		return defaultVal
	}
	return d
}
