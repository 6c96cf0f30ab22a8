// Package openai embeds text with the OpenAI embeddings API or any server
// that speaks the same protocol.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// legacyDimensions is the fixed size of models that cannot be shortened.
	legacyDimensions = 1536
)

// Config configures the adapter. APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions is sent with text-embedding-3-* requests so the server
	// shortens vectors to the index size. Zero means 384 for those models.
	Dimensions int
}

type EmbeddingService struct {
	api   *httpjson.Client
	model string
	dims  int
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

// NewEmbeddingService validates cfg and applies defaults.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrInvalidConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	return &EmbeddingService{
		api:   httpjson.New("openai", cfg.BaseURL, cfg.Timeout, header),
		model: cfg.Model,
		dims:  dimensionsFor(cfg.Model, cfg.Dimensions),
	}, nil
}

func dimensionsFor(model string, requested int) int {
	switch {
	case requested > 0:
		return requested
	case shortenable(model):
		return domain.DefaultDimensions
	}
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	return legacyDimensions
}

// shortenable reports whether the model accepts the dimensions parameter.
func shortenable(model string) bool {
	return strings.HasPrefix(model, "text-embedding-3-")
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in one request. Results are placed by their
// index field, so response order does not matter.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := embeddingRequest{Model: s.model, Input: texts}
	if shortenable(s.model) {
		payload.Dimensions = s.dims
	}
	var out embeddingResponse
	if err := s.api.Post(ctx, "/embeddings", payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	vecs := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: openai returned index %d for %d inputs",
				domain.ErrEmbeddingUnavailable, d.Index, len(texts))
		}
		if len(d.Embedding) != s.dims {
			return nil, fmt.Errorf("%w: %w: openai returned %d dimensions, expected %d",
				domain.ErrInvalidConfiguration, domain.ErrDimensionMismatch, len(d.Embedding), s.dims)
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("%w: openai returned no embedding for input %d", domain.ErrEmbeddingUnavailable, i)
		}
	}
	return vecs, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dims }
func (s *EmbeddingService) ModelName() string { return s.model }
func (s *EmbeddingService) Close() error      { return nil }

// Ping lists models, which checks the key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := s.api.Get(ctx, "/models", nil); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}
