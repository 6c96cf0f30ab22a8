package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// embedBatchSize bounds the texts sent in one EmbedBatch call.
const embedBatchSize = 64

// IndexService is the write path from the chunk store to the vector store.
// The chunk store is the system of record; the vector store is rebuilt from it.
type IndexService struct {
	sources  driven.SourceStore
	chunks   driven.ChunkStore
	embedder driven.EmbeddingService
	store    driven.VectorStore
	timeout  time.Duration
}

// NewIndexService creates an index service. timeout bounds each vector
// store call; zero uses domain.DefaultVectorStoreTimeout.
func NewIndexService(
	sources driven.SourceStore,
	chunks driven.ChunkStore,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	timeout time.Duration,
) *IndexService {
	if timeout <= 0 {
		timeout = domain.DefaultVectorStoreTimeout
	}
	return &IndexService{
		sources:  sources,
		chunks:   chunks,
		embedder: embedder,
		store:    store,
		timeout:  timeout,
	}
}

// IndexSource embeds the chunks of a source that have no embedding, records
// the embeddings and upserts every embedded chunk.
func (s *IndexService) IndexSource(ctx context.Context, sourceID string) (*domain.IndexStats, error) {
	logger.Section("Index Source")
	logger.Debug("Source: %s", sourceID)

	chunks, err := s.chunks.GetChunks(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}

	stats := &domain.IndexStats{SourceID: sourceID, Chunks: len(chunks)}

	var pending []int
	for i := range chunks {
		if chunks[i].HasEmbedding() {
			stats.Skipped++
			continue
		}
		pending = append(pending, i)
	}
	logger.Debug("Chunks: %d, already embedded: %d", len(chunks), stats.Skipped)

	for start := 0; start < len(pending); start += embedBatchSize {
		end := min(start+embedBatchSize, len(pending))
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = chunks[idx].Content
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", classify(err, domain.ErrEmbeddingUnavailable))
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts",
				domain.ErrEmbeddingUnavailable, len(vectors), len(batch))
		}

		for j, idx := range batch {
			if err := s.chunks.SaveEmbedding(ctx, chunks[idx].ID, vectors[j]); err != nil {
				return nil, fmt.Errorf("save embedding for chunk %s: %w", chunks[idx].ID, err)
			}
			chunks[idx].Embedding = vectors[j]
			stats.Embedded++
		}
	}

	records := make([]domain.VectorRecord, 0, len(chunks))
	for i := range chunks {
		if chunks[i].HasEmbedding() {
			records = append(records, domain.NewVectorRecord(&chunks[i]))
		}
	}

	if err := s.upsert(ctx, records); err != nil {
		return nil, err
	}
	stats.Upserted = len(records)

	logger.Info("Indexed source %s: %d embedded, %d skipped, %d upserted",
		sourceID, stats.Embedded, stats.Skipped, stats.Upserted)
	return stats, nil
}

// IndexAll runs IndexSource for every stored source, stopping at the first failure.
func (s *IndexService) IndexAll(ctx context.Context) ([]domain.IndexStats, error) {
	sources, err := s.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	all := make([]domain.IndexStats, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		stats, err := s.IndexSource(ctx, src.ID)
		if err != nil {
			return all, fmt.Errorf("index source %s: %w", src.ID, err)
		}
		all = append(all, *stats)
	}
	return all, nil
}

// Reindex clears the vector store and rebuilds it from the chunk store.
// With opts.Force every chunk is embedded again.
func (s *IndexService) Reindex(ctx context.Context, opts domain.ReindexOptions) ([]domain.IndexStats, error) {
	logger.Section("Reindex")
	logger.Debug("Force: %t", opts.Force)

	resetCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.store.Reset(resetCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("reset vector store: %w", classify(err, domain.ErrVectorStoreUnavailable))
	}

	if opts.Force {
		if err := s.chunks.ClearEmbeddings(ctx); err != nil {
			return nil, fmt.Errorf("clear embeddings: %w", err)
		}
	}

	return s.IndexAll(ctx)
}

// DropChunks deletes the vector records of chunks that no longer exist.
func (s *IndexService) DropChunks(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	ids := make([]string, len(chunkIDs))
	for i, id := range chunkIDs {
		ids[i] = domain.VectorRecordID(id)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete vectors: %w", classify(err, domain.ErrVectorStoreUnavailable))
	}
	logger.Debug("Dropped %d stale vector records", len(ids))
	return nil
}

// VectorCount reports how many records the vector store holds.
func (s *IndexService) VectorCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count vectors: %w", classify(err, domain.ErrVectorStoreUnavailable))
	}
	return n, nil
}

func (s *IndexService) upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert vectors: %w", classify(err, domain.ErrVectorStoreUnavailable))
	}
	return nil
}
