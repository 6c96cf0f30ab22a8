// Package postprocessors turns extracted pages into chunks through a
// configurable chain of processors.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline feeds each processor the chunks produced by the one before it.
// The first processor is handed nil and is expected to create chunks from
// the page.
type Pipeline struct {
	stages []driven.PostProcessor
}

func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: processors}
}

// Process runs page through every stage. It stops at the first failing
// stage or when ctx is done.
func (p *Pipeline) Process(ctx context.Context, page *domain.Page) ([]domain.Chunk, error) {
	if page == nil {
		return nil, fmt.Errorf("%w: page is nil", domain.ErrInvalidParameter)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := stage.Process(ctx, page, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s on page %s: %w", stage.Name(), page.ID, err)
		}
		chunks = out
	}
	return chunks, nil
}

func (p *Pipeline) Add(processor driven.PostProcessor) { p.stages = append(p.stages, processor) }
func (p *Pipeline) Len() int                           { return len(p.stages) }

// Names lists the stages in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, stage := range p.stages {
		names[i] = stage.Name()
	}
	return names
}
