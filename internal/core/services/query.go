package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultAnswerPrompt is used when the prompt store has no usable template.
// The first %s is the query, the second the retrieved content.
const DefaultAnswerPrompt = `Answer the question using only the content below.
If the content does not contain the answer, say that the indexed pages do not cover it.

Question: %s

Content:
%s

Answer:`

// QueryConfig fixes the pipeline parameters of a QueryService.
type QueryConfig struct {
	// Backend names the summarizer the completion backend talks to.
	Backend domain.SummarizerBackend

	// TopK is used when a query passes topK below 1.
	TopK int

	VectorStoreTimeout time.Duration
	SummarizerTimeout  time.Duration
}

// QueryService runs the retrieval-summarization pipeline.
type QueryService struct {
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	summarizer driven.CompletionBackend
	prompts    driven.PromptStore
	cfg        QueryConfig
}

// NewQueryService creates a query service. The summarizer backend is fixed
// here; an unknown backend fails with domain.ErrInvalidConfiguration.
// prompts may be nil, in which case DefaultAnswerPrompt is always used.
func NewQueryService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	summarizer driven.CompletionBackend,
	prompts driven.PromptStore,
	cfg QueryConfig,
) (*QueryService, error) {
	if !cfg.Backend.IsValid() {
		return nil, fmt.Errorf("%w: unknown summarizer backend %q", domain.ErrInvalidConfiguration, cfg.Backend)
	}
	if embedder == nil || store == nil || summarizer == nil {
		return nil, fmt.Errorf("%w: query service needs an embedder, a vector store and a summarizer",
			domain.ErrInvalidConfiguration)
	}
	if cfg.TopK < 1 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.VectorStoreTimeout <= 0 {
		cfg.VectorStoreTimeout = domain.DefaultVectorStoreTimeout
	}
	if cfg.SummarizerTimeout <= 0 {
		cfg.SummarizerTimeout = domain.DefaultSummarizerTimeout
	}

	return &QueryService{
		embedder:   embedder,
		store:      store,
		summarizer: summarizer,
		prompts:    prompts,
		cfg:        cfg,
	}, nil
}

// Backend returns the summarizer backend fixed at construction.
func (s *QueryService) Backend() domain.SummarizerBackend {
	return s.cfg.Backend
}

// Query runs one request through the pipeline stages in order.
func (s *QueryService) Query(ctx context.Context, query string, topK int) (*domain.QueryResult, error) {
	logger.Section("Query Pipeline")
	logger.Debug("Query: %q, top_k: %d", query, topK)

	if strings.TrimSpace(query) == "" {
		return nil, stageError(domain.StageEmbedding,
			fmt.Errorf("%w: query is empty", domain.ErrInvalidParameter))
	}
	if topK < 1 {
		topK = s.cfg.TopK
	}

	// EMBEDDING
	logger.Debug("Stage: %s", domain.StageEmbedding)
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, stageError(domain.StageEmbedding, classify(err, domain.ErrEmbeddingUnavailable))
	}

	// RETRIEVING
	logger.Debug("Stage: %s", domain.StageRetrieving)
	matches, err := s.retrieve(ctx, vector, topK)
	if err != nil {
		return nil, stageError(domain.StageRetrieving, classify(err, domain.ErrVectorStoreUnavailable))
	}
	logger.Debug("Retrieved %d matches", len(matches))
	if len(matches) == 0 {
		return noResults(query), nil
	}

	// DEDUPING
	logger.Debug("Stage: %s", domain.StageDeduping)
	contents := DedupeContents(matches)
	if len(contents) == 0 {
		return noResults(query), nil
	}
	logger.Debug("Unique contents: %d", len(contents))

	// PROMPTING
	logger.Debug("Stage: %s", domain.StagePrompting)
	prompt := BuildPrompt(s.template(), query, contents)

	// SUMMARIZING
	logger.Debug("Stage: %s (%s)", domain.StageSummarizing, s.cfg.Backend)
	summary, err := s.summarize(ctx, prompt)
	if err != nil {
		return nil, stageError(domain.StageSummarizing, classify(err, domain.ErrSummarizationFailed))
	}

	logger.Info("Query answered by %s from %d matches", s.cfg.Backend, len(matches))
	return &domain.QueryResult{
		Query:        query,
		Summary:      summary,
		TotalResults: len(matches),
		Backend:      s.cfg.Backend,
		Stage:        domain.StageDone,
		Sources:      sourceIDs(matches),
	}, nil
}

func (s *QueryService) retrieve(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.VectorStoreTimeout)
	defer cancel()
	return s.store.Query(ctx, vector, topK)
}

func (s *QueryService) summarize(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SummarizerTimeout)
	defer cancel()

	summary, err := s.summarizer.GenerateCompletion(ctx, prompt)
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("%w: %s returned an empty completion", domain.ErrSummarizationFailed, s.cfg.Backend)
	}
	return summary, nil
}

// template loads the answer prompt, falling back to DefaultAnswerPrompt
// when the store fails or the template does not take exactly two strings.
func (s *QueryService) template() string {
	if s.prompts == nil {
		return DefaultAnswerPrompt
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		logger.Warn("Loading prompt %q failed, using default: %v", driven.PromptAnswer, err)
		return DefaultAnswerPrompt
	}
	if strings.Count(tmpl, "%s") != 2 || strings.Count(tmpl, "%") != 2 {
		logger.Warn("Prompt %q must contain exactly two %%s placeholders, using default", driven.PromptAnswer)
		return DefaultAnswerPrompt
	}
	return tmpl
}

// DedupeContents collects match contents in order, dropping empty strings
// and exact duplicates. The first occurrence wins.
func DedupeContents(matches []domain.VectorMatch) []string {
	seen := make(map[string]struct{}, len(matches))
	contents := make([]string, 0, len(matches))
	for _, m := range matches {
		c := m.Metadata.Content
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		contents = append(contents, c)
	}
	return contents
}

// BuildPrompt fills template with the query and the contents joined by single spaces.
func BuildPrompt(template, query string, contents []string) string {
	return fmt.Sprintf(template, query, strings.Join(contents, " "))
}

func sourceIDs(matches []domain.VectorMatch) []string {
	seen := make(map[string]struct{}, len(matches))
	var ids []string
	for _, m := range matches {
		id := m.Metadata.SourceID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func noResults(query string) *domain.QueryResult {
	logger.Debug("Stage: %s", domain.StageNoResults)
	return &domain.QueryResult{
		Query:        query,
		Summary:      domain.NoResultsSummary,
		TotalResults: 0,
		Stage:        domain.StageNoResults,
	}
}

func stageError(stage domain.PipelineStage, err error) error {
	logger.Warn("Pipeline failed at %s: %v", stage, err)
	return &domain.PipelineError{Stage: stage, Err: err}
}

// classify makes sure err carries a taxonomy sentinel. Errors that already
// carry one keep it; anything else, deadlines included, is wrapped with fallback.
func classify(err, fallback error) error {
	if errors.Is(err, fallback) || domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return fmt.Errorf("%w: %w", fallback, err)
}
