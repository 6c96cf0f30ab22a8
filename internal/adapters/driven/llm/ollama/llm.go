// Package ollama answers prompts with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.CompletionBackend = (*LLMService)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	// DefaultTimeout is generous because the first request loads the model.
	DefaultTimeout = 300 * time.Second

	temperature = 0.2
)

type Config struct {
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type LLMService struct {
	api       *httpjson.Client
	model     string
	maxTokens int
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func NewLLMService(cfg Config) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = domain.DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &LLMService{
		api:       httpjson.New("ollama", cfg.BaseURL, cfg.Timeout, nil),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// GenerateCompletion runs a single non-streaming /api/generate call.
func (s *LLMService) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	in := generateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Options: &options{NumPredict: s.maxTokens, Temperature: temperature},
	}
	var out generateResponse
	if err := s.api.Post(ctx, "/api/generate", in, &out); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSummarizationFailed, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: ollama: %s", domain.ErrSummarizationFailed, out.Error)
	}
	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", fmt.Errorf("%w: ollama returned an empty completion", domain.ErrSummarizationFailed)
	}
	return text, nil
}

// Ping lists local models, which succeeds whenever the server is up.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/api/tags", nil)
}

func (s *LLMService) Backend() string   { return string(domain.SummarizerOllama) }
func (s *LLMService) ModelName() string { return s.model }
func (s *LLMService) Close() error      { return nil }
