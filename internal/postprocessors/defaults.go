package postprocessors

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// RegisterDefaults adds the built-in processors to r.
func RegisterDefaults(r *Registry) {
	r.Register(chunker.Name, newChunker)
}

// DefaultPipeline returns a pipeline holding only the chunker, sized from
// settings.
func DefaultPipeline(settings domain.ChunkerSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	c, err := r.Build(chunker.Name, Config{
		"chunk_size": settings.ChunkSize,
		"overlap":    settings.Overlap,
	})
	if err != nil {
		return nil, err
	}
	return NewPipeline(c), nil
}

// newChunker understands chunk_size and overlap. A missing or non-positive
// chunk_size keeps the chunker default.
func newChunker(cfg Config) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size, ok := cfg.Int("chunk_size"); ok && size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := cfg.Int("overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...)
}
