package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// PostProcessor turns an extracted page into chunks or refines the chunks
// an earlier processor produced.
type PostProcessor interface {
	// Name identifies the processor in configuration and errors.
	Name() string

	// Process receives the chunks so far (nil for the first processor)
	// and returns the updated set.
	Process(ctx context.Context, page *domain.Page, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs processors in order to chunk a page.
type PostProcessorPipeline interface {
	// Process returns the chunks for page. Positions start at zero and are
	// renumbered by the caller across the pages of a source.
	Process(ctx context.Context, page *domain.Page) ([]domain.Chunk, error)
}
