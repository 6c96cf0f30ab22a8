package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment
	// credentials filling any empty keys.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetSummarizer configures the summarizer backend.
	SetSummarizer(backend domain.SummarizerBackend, model, apiKey string) error

	// SetVectorStore configures the vector store.
	SetVectorStore(settings domain.VectorStoreSettings) error

	// Validate checks that the current settings are consistent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateSummarizerConfig validates the current summarizer configuration by pinging the backend.
	ValidateSummarizerConfig() error
}
