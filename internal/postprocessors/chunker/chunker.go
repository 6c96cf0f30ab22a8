// Package chunker splits extracted page text into overlapping fixed-size windows.
package chunker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.PostProcessor = (*Chunker)(nil)

// Name is the processor name used in configuration.
const Name = "chunker"

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Split cuts text into windows of chunkSize characters whose starts are
// chunkSize-overlap apart. Characters are runes. The last window may be
// shorter and the loop stops at the first window that reaches the end.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidParameter, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidParameter, chunkSize, overlap)
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return []string{}, nil
	}

	step := chunkSize - overlap
	chunks := make([]string, 0, Count(n, chunkSize, overlap))

	for start := 0; ; start += step {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}

	return chunks, nil
}

// Count returns how many chunks Split produces for a text of n runes.
// Parameters are assumed valid.
func Count(n, chunkSize, overlap int) int {
	if n == 0 {
		return 0
	}
	if n <= chunkSize {
		return 1
	}
	step := chunkSize - overlap
	return (n - overlap + step - 1) / step
}

// Chunker applies Split with fixed parameters and builds domain chunks.
type Chunker struct {
	chunkSize int
	overlap   int
	now       func() time.Time
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker. Invalid parameters fail with domain.ErrInvalidParameter.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if _, err := Split("", c.chunkSize, c.overlap); err != nil {
		return nil, err
	}

	return c, nil
}

// ChunkSize returns the configured window length.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// ChunkPage cuts a page into chunks without embeddings. Positions start at
// startPosition so chunks stay ordered across the pages of one source.
func (c *Chunker) ChunkPage(page *domain.Page, startPosition int) ([]domain.Chunk, error) {
	texts, err := Split(page.Content, c.chunkSize, c.overlap)
	if err != nil {
		return nil, err
	}

	now := c.now()
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:        uuid.New().String(),
			SourceID:  page.SourceID,
			PageID:    page.ID,
			Content:   text,
			Position:  startPosition + i,
			CreatedAt: now,
		})
	}

	return chunks, nil
}

// Name identifies the chunker in processor configuration.
func (c *Chunker) Name() string {
	return Name
}

// Process chunks page, replacing any chunks an earlier processor produced.
func (c *Chunker) Process(_ context.Context, page *domain.Page, _ []domain.Chunk) ([]domain.Chunk, error) {
	return c.ChunkPage(page, 0)
}
