package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QueryService answers natural-language questions over indexed content.
type QueryService interface {
	// Query embeds the question, retrieves the topK most similar chunks and
	// summarizes them. A topK below 1 uses the configured default.
	//
	// When nothing usable is retrieved the result carries
	// domain.NoResultsSummary and a nil error. Failures are returned as
	// *domain.PipelineError naming the stage that failed.
	Query(ctx context.Context, query string, topK int) (*domain.QueryResult, error)

	// Backend returns the summarizer backend fixed at construction.
	Backend() domain.SummarizerBackend
}
