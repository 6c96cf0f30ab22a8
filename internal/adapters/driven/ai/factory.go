// Package ai provides factory functions for creating the embedding,
// summarizer and vector store adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ratelimited"
	anthropicllm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/openai"
	memvec "github.com/custodia-labs/sercha-rag/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vectorstore/pgvector"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vectorstore/pinecone"
	redisvec "github.com/custodia-labs/sercha-rag/internal/adapters/driven/vectorstore/redis"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// SnapshotFileName is the memory vector store snapshot inside the data directory.
const SnapshotFileName = "vectors.json"

var log = logger.With("ai")

// InitOptions controls which services Init creates.
type InitOptions struct {
	// DataDir holds the memory store snapshot when none is configured.
	DataDir string

	// WithSummarizer also creates the completion backend.
	WithSummarizer bool
}

// InitResult contains the services created by Init.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	Summarizer       driven.CompletionBackend
	VectorStore      driven.VectorStore
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() error {
	var errs []error
	if r.EmbeddingService != nil {
		errs = append(errs, r.EmbeddingService.Close())
	}
	if r.VectorStore != nil {
		errs = append(errs, r.VectorStore.Close())
	}
	if r.Summarizer != nil {
		errs = append(errs, r.Summarizer.Close())
	}
	return errors.Join(errs...)
}

// Init creates and validates the services the pipeline needs. The embedder
// must answer Ping and its dimension must match the vector store's; either
// failure is fatal.
func Init(ctx context.Context, settings *domain.AppSettings, opts InitOptions) (*InitResult, error) {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding, settings.VectorStore.Dimensions)
	if err != nil {
		return nil, err
	}
	result.EmbeddingService = embedder

	store, err := CreateVectorStore(ctx, &settings.VectorStore, opts.DataDir)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.VectorStore = store

	if err := CheckDimensions(embedder, store); err != nil {
		result.Close()
		return nil, err
	}

	if opts.WithSummarizer {
		summarizer, err := CreateCompletionBackend(&settings.Summarizer)
		if err != nil {
			result.Close()
			return nil, err
		}
		result.Summarizer = summarizer
	}

	log.Debug("initialised embedder=%s store=%s dims=%d", embedder.ModelName(), settings.VectorStore.Provider, store.Dimensions())
	return result, nil
}

// CheckDimensions fails when the embedder and the vector store disagree on vector size.
func CheckDimensions(embedder driven.EmbeddingService, store driven.VectorStore) error {
	if embedder.Dimensions() != store.Dimensions() {
		return fmt.Errorf("%w: %w: embedder %s produces %d dimensions, vector store expects %d",
			domain.ErrInvalidConfiguration, domain.ErrDimensionMismatch,
			embedder.ModelName(), embedder.Dimensions(), store.Dimensions())
	}
	return nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings, dimensions int,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings, dimensions)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, fmt.Errorf("%w. Run 'sercha-rag settings embedding' to fix", err)
		}
		return nil, fmt.Errorf("%w: %w. Run 'sercha-rag settings embedding' to fix", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateEmbeddingService creates the embedding service named by settings,
// throttled when RequestsPerSecond is set.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, dimensions int) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured", domain.ErrInvalidConfiguration, providerName(settings))
	}
	if dimensions <= 0 {
		dimensions = domain.DefaultDimensions
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})

	case domain.AIProviderOpenAI:
		openaiSvc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})
		if err != nil {
			return nil, err
		}
		svc = openaiSvc

	case domain.AIProviderHashing:
		hashSvc, err := hashing.NewEmbeddingService(dimensions)
		if err != nil {
			return nil, err
		}
		svc = hashSvc

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidConfiguration, settings.Provider)
	}

	return ratelimited.Wrap(svc, settings.RequestsPerSecond), nil
}

func providerName(settings *domain.EmbeddingSettings) string {
	if settings == nil {
		return ""
	}
	return string(settings.Provider)
}

// CreateCompletionBackend creates the summarizer backend named by settings.
// An unknown backend fails with domain.ErrInvalidConfiguration.
func CreateCompletionBackend(settings *domain.SummarizerSettings) (driven.CompletionBackend, error) {
	if settings == nil || !settings.Backend.IsValid() {
		backend := ""
		if settings != nil {
			backend = string(settings.Backend)
		}
		return nil, fmt.Errorf("%w: unknown summarizer backend %q", domain.ErrInvalidConfiguration, backend)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: summarizer backend %s requires an API key. Run 'sercha-rag settings summarizer' to fix",
			domain.ErrInvalidConfiguration, settings.Backend)
	}

	switch settings.Backend {
	case domain.SummarizerOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		}), nil

	case domain.SummarizerOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	case domain.SummarizerAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	default:
		return nil, fmt.Errorf("%w: unknown summarizer backend %q", domain.ErrInvalidConfiguration, settings.Backend)
	}
}

// CreateVectorStore opens the vector store named by settings. Remote stores
// are pinged and their index is created when missing.
func CreateVectorStore(ctx context.Context, settings *domain.VectorStoreSettings, dataDir string) (driven.VectorStore, error) {
	if settings == nil || !settings.IsConfigured() {
		provider := ""
		if settings != nil {
			provider = string(settings.Provider)
		}
		return nil, fmt.Errorf("%w: vector store %q is not configured. Run 'sercha-rag settings vector-store' to fix",
			domain.ErrInvalidConfiguration, provider)
	}

	switch settings.Provider {
	case domain.VectorStoreMemory:
		snapshot := settings.Snapshot
		if snapshot == "" && dataDir != "" {
			snapshot = filepath.Join(dataDir, SnapshotFileName)
		}
		return memvec.New(settings.Dimensions, snapshot)

	case domain.VectorStoreRedis:
		return redisvec.New(ctx, redisvec.Config{
			URL:        settings.URL,
			Index:      settings.Index,
			Dimensions: settings.Dimensions,
		})

	case domain.VectorStorePinecone:
		store, err := pinecone.New(pinecone.Config{
			APIKey:     settings.APIKey,
			Index:      settings.Index,
			Namespace:  settings.Namespace,
			Dimensions: settings.Dimensions,
			Cloud:      settings.Cloud,
			Region:     settings.Region,
			Host:       settings.URL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case domain.VectorStorePgvector:
		return pgvector.New(ctx, pgvector.Config{
			URL:        settings.URL,
			Table:      settings.Index,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported vector store: %s", domain.ErrInvalidConfiguration, settings.Provider)
	}
}
