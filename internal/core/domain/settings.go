package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderHashing is the built-in feature-hashing embedder.
	// It needs no network and is deterministic.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderHashing:
		return "Hashing (built-in, offline)"
	default:
		return unknownDescription
	}
}

// SummarizerBackend selects the language model that turns retrieved
// content into an answer. Fixed for the lifetime of a query service.
type SummarizerBackend string

// Available summarizer backends.
const (
	// SummarizerOpenAI is the hosted OpenAI chat completions API.
	SummarizerOpenAI SummarizerBackend = "openai"

	// SummarizerAnthropic is the hosted Anthropic messages API.
	SummarizerAnthropic SummarizerBackend = "anthropic"

	// SummarizerOllama is a locally hosted model served by Ollama.
	SummarizerOllama SummarizerBackend = "ollama"
)

// IsValid returns true if the backend is recognised.
func (b SummarizerBackend) IsValid() bool {
	switch b {
	case SummarizerOpenAI, SummarizerAnthropic, SummarizerOllama:
		return true
	default:
		return false
	}
}

// IsHosted returns true for backends reached over a third-party API.
func (b SummarizerBackend) IsHosted() bool {
	return b == SummarizerOpenAI || b == SummarizerAnthropic
}

// RequiresAPIKey returns true if this backend needs an API key.
func (b SummarizerBackend) RequiresAPIKey() bool {
	return b.IsHosted()
}

// String returns the string representation.
func (b SummarizerBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b SummarizerBackend) Description() string {
	switch b {
	case SummarizerOpenAI:
		return "OpenAI (hosted)"
	case SummarizerAnthropic:
		return "Anthropic (hosted)"
	case SummarizerOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// VectorStoreProvider identifies the vector index implementation.
type VectorStoreProvider string

// Available vector store providers.
const (
	// VectorStoreMemory keeps vectors in process with an optional JSON snapshot.
	VectorStoreMemory VectorStoreProvider = "memory"

	// VectorStoreRedis uses Redis Stack (RediSearch HNSW).
	VectorStoreRedis VectorStoreProvider = "redis"

	// VectorStorePinecone uses the Pinecone serverless REST API.
	VectorStorePinecone VectorStoreProvider = "pinecone"

	// VectorStorePgvector uses PostgreSQL with the pgvector extension.
	VectorStorePgvector VectorStoreProvider = "pgvector"
)

// IsValid returns true if the provider is recognised.
func (p VectorStoreProvider) IsValid() bool {
	switch p {
	case VectorStoreMemory, VectorStoreRedis, VectorStorePinecone, VectorStorePgvector:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p VectorStoreProvider) RequiresAPIKey() bool {
	return p == VectorStorePinecone
}

// RequiresURL returns true if this provider needs a connection URL.
func (p VectorStoreProvider) RequiresURL() bool {
	return p == VectorStoreRedis || p == VectorStorePgvector
}

// String returns the string representation.
func (p VectorStoreProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p VectorStoreProvider) Description() string {
	switch p {
	case VectorStoreMemory:
		return "Memory (local snapshot file)"
	case VectorStoreRedis:
		return "Redis Stack (RediSearch)"
	case VectorStorePinecone:
		return "Pinecone (serverless)"
	case VectorStorePgvector:
		return "PostgreSQL + pgvector"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// SummarizerSettings holds summarizer backend configuration.
type SummarizerSettings struct {
	// Backend is the summarization backend.
	Backend SummarizerBackend

	// Model is the language model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for hosted backends).
	APIKey string

	// MaxTokens bounds the completion length.
	MaxTokens int
}

// IsConfigured returns true if the summarizer backend is set up.
func (s SummarizerSettings) IsConfigured() bool {
	if !s.Backend.IsValid() {
		return false
	}
	if s.Backend.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings holds vector index configuration.
type VectorStoreSettings struct {
	// Provider is the vector index implementation.
	Provider VectorStoreProvider

	// Index is the index (or table) name.
	Index string

	// Namespace partitions records inside the index where supported.
	Namespace string

	// Dimensions is the embedding vector size the index accepts.
	Dimensions int

	// URL is the connection string (redis:// or postgres://).
	URL string

	// APIKey is the API key (for Pinecone).
	APIKey string

	// Cloud and Region place a newly created serverless index.
	Cloud  string
	Region string

	// Snapshot is the JSON file backing the memory provider.
	Snapshot string
}

// IsConfigured returns true if the vector store is set up.
func (v VectorStoreSettings) IsConfigured() bool {
	if !v.Provider.IsValid() || v.Dimensions <= 0 {
		return false
	}
	if v.Provider.RequiresAPIKey() && v.APIKey == "" {
		return false
	}
	if v.Provider.RequiresURL() && v.URL == "" {
		return false
	}
	return true
}

// ChunkerSettings holds text chunking configuration.
type ChunkerSettings struct {
	// ChunkSize is the window length in characters.
	ChunkSize int

	// Overlap is the number of characters shared by neighbouring chunks.
	Overlap int
}

// PipelineSettings holds query pipeline configuration.
type PipelineSettings struct {
	// TopK is the default number of matches retrieved per query.
	TopK int

	// VectorStoreTimeout bounds each vector store call.
	VectorStoreTimeout time.Duration

	// SummarizerTimeout bounds each summarizer call.
	SummarizerTimeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	Summarizer  SummarizerSettings
	VectorStore VectorStoreSettings
	Chunker     ChunkerSettings
	Pipeline    PipelineSettings
}

// Default configuration values.
const (
	DefaultDimensions         = 384
	DefaultChunkSize          = 500
	DefaultChunkOverlap       = 50
	DefaultTopK               = 5
	DefaultVectorStoreTimeout = 10 * time.Second
	DefaultSummarizerTimeout  = 60 * time.Second
	DefaultMaxTokens          = 1024
	DefaultIndexName          = "chatbot2"
	DefaultCloud              = "aws"
	DefaultRegion             = "us-east-1"
)

// DefaultAppSettings returns settings that work offline out of the box:
// the hashing embedder feeding the memory store. The summarizer still
// needs a backend and, for hosted backends, an API key.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderHashing,
			Model:    DefaultEmbeddingModels()[AIProviderHashing],
		},
		Summarizer: SummarizerSettings{
			Backend:   SummarizerOllama,
			Model:     DefaultSummarizerModels()[SummarizerOllama],
			MaxTokens: DefaultMaxTokens,
		},
		VectorStore: VectorStoreSettings{
			Provider:   VectorStoreMemory,
			Index:      DefaultIndexName,
			Dimensions: DefaultDimensions,
			Cloud:      DefaultCloud,
			Region:     DefaultRegion,
		},
		Chunker: ChunkerSettings{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Pipeline: PipelineSettings{
			TopK:               DefaultTopK,
			VectorStoreTimeout: DefaultVectorStoreTimeout,
			SummarizerTimeout:  DefaultSummarizerTimeout,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllSummarizerBackends returns every summarizer backend.
func AllSummarizerBackends() []SummarizerBackend {
	return []SummarizerBackend{
		SummarizerOllama,
		SummarizerOpenAI,
		SummarizerAnthropic,
	}
}

// AllVectorStoreProviders returns every vector store provider.
func AllVectorStoreProviders() []VectorStoreProvider {
	return []VectorStoreProvider{
		VectorStoreMemory,
		VectorStoreRedis,
		VectorStorePinecone,
		VectorStorePgvector,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  "all-minilm",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderHashing: "hashing-v1",
	}
}

// DefaultSummarizerModels returns default models for each summarizer backend.
func DefaultSummarizerModels() map[SummarizerBackend]string {
	return map[SummarizerBackend]string{
		SummarizerOllama:    "llama3.2",
		SummarizerOpenAI:    "gpt-4o-mini",
		SummarizerAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the native vector dimensions for known models.
// OpenAI text-embedding-3 models can be shortened with the dimensions parameter.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"all-minilm":             384,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}
