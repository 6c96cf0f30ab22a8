package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// Layout under the config directory.
const (
	promptsDirName = "prompts"
	dataDirName    = "data"
)

// metadata is the source and chunk storage the services share.
type metadata struct {
	sources driven.SourceStore
	chunks  driven.ChunkStore
	close   func() error
}

// openMetadata opens the sqlite store under dir, or in-memory stores when
// ephemeral is set.
func openMetadata(dir string, ephemeral bool) (*metadata, error) {
	if ephemeral {
		store := memory.NewStore()
		logger.Debug("metadata: in memory")
		return &metadata{sources: store, chunks: store, close: func() error { return nil }}, nil
	}

	store, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	logger.Debug("metadata: %s", store.Path())
	return &metadata{sources: store.SourceStore(), chunks: store.ChunkStore(), close: store.Close}, nil
}

// bootstrap builds the CLI services. Stores are opened here; model clients
// and the vector store are only opened by the engine factory.
func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	dir := filepath.Dir(configStore.Path())

	current, err := services.NewSettingsService(configStore, nil).Get()
	if err != nil {
		return nil, err
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(current.VectorStore.Dimensions))

	prompts, err := file.NewPromptStore(filepath.Join(dir, promptsDirName))
	if err != nil {
		return nil, err
	}

	meta, err := openMetadata(filepath.Join(dir, dataDirName), opts.Ephemeral)
	if err != nil {
		return nil, err
	}

	registry := normalisers.NewRegistry(html.New(), markdown.New(), plaintext.New())

	return &cli.Services{
		Settings: settingsService,
		Source:   services.NewSourceService(meta.sources, meta.chunks),
		Ingest:   services.NewIngestService(meta.sources, registry, &settingsPipeline{settings: settingsService}),
		Prompts:  prompts,
		Engine:   engineFactory(settingsService, meta, prompts, filepath.Join(dir, dataDirName)),
		Close:    meta.close,
	}, nil
}

// settingsPipeline chunks with the chunker settings current at call time.
// Invalid chunker settings fail the ingest that needs them and leave every
// other command usable, including the settings command that repairs them.
type settingsPipeline struct {
	settings *services.SettingsService
}

var _ driven.PostProcessorPipeline = (*settingsPipeline)(nil)

func (p *settingsPipeline) Process(ctx context.Context, page *domain.Page) ([]domain.Chunk, error) {
	current, err := p.settings.Get()
	if err != nil {
		return nil, err
	}
	pipeline, err := postprocessors.DefaultPipeline(current.Chunker)
	if err != nil {
		return nil, fmt.Errorf("%w: chunker settings: %w", domain.ErrInvalidConfiguration, err)
	}
	logger.Debug("chunking %s with %s", page.URL, strings.Join(pipeline.Names(), " -> "))
	return pipeline.Process(ctx, page)
}

// engineFactory reads the settings on every call so changes made by the
// settings command apply to the next engine.
func engineFactory(
	settings *services.SettingsService,
	meta *metadata,
	prompts *file.PromptStore,
	dataDir string,
) cli.EngineFactory {
	return func(ctx context.Context, withSummarizer bool) (*cli.Engine, error) {
		current, err := settings.Get()
		if err != nil {
			return nil, err
		}

		res, err := ai.Init(ctx, current, ai.InitOptions{
			DataDir:        dataDir,
			WithSummarizer: withSummarizer,
		})
		if err != nil {
			return nil, err
		}

		engine := &cli.Engine{
			Index: services.NewIndexService(meta.sources, meta.chunks,
				res.EmbeddingService, res.VectorStore, current.Pipeline.VectorStoreTimeout),
			Close: res.Close,
		}

		if withSummarizer {
			query, err := services.NewQueryService(res.EmbeddingService, res.VectorStore, res.Summarizer, prompts,
				services.QueryConfig{
					Backend:            current.Summarizer.Backend,
					TopK:               current.Pipeline.TopK,
					VectorStoreTimeout: current.Pipeline.VectorStoreTimeout,
					SummarizerTimeout:  current.Pipeline.SummarizerTimeout,
				})
			if err != nil {
				return nil, errors.Join(err, res.Close())
			}
			engine.Query = query
		}

		return engine, nil
	}
}
