// Package anthropic answers prompts with the Anthropic messages API.
package anthropic

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

// Ensure LLMService implements the interface.
var _ driven.CompletionBackend = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-haiku-latest"
	DefaultTimeout = 120 * time.Second

	anthropicVersion = "2023-06-01"
	temperature      = 0.2
)

// Config configures the backend. APIKey is required.
type Config struct {
	APIKey    string
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

type messagesRequest struct {
	Model       string         `json:"model"`
	Messages    []inputMessage `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic: API key is required", domain.ErrInvalidConfiguration)
	}
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

	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", anthropicVersion)
	return &LLMService{
		api:       httpjson.New("anthropic", cfg.BaseURL, cfg.Timeout, header),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// GenerateCompletion returns the concatenated text blocks of the reply.
// Other block types are skipped.
func (s *LLMService) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	in := messagesRequest{
		Model:       s.model,
		Messages:    []inputMessage{{Role: "user", Content: prompt}},
		MaxTokens:   s.maxTokens,
		Temperature: temperature,
	}
	var out messagesResponse
	if err := s.api.Post(ctx, "/v1/messages", in, &out); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSummarizationFailed, err)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return "", fmt.Errorf("%w: anthropic returned an empty completion", domain.ErrSummarizationFailed)
	}
	return answer, nil
}

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/v1/models", nil)
}

func (s *LLMService) Backend() string   { return string(domain.SummarizerAnthropic) }
func (s *LLMService) ModelName() string { return s.model }
func (s *LLMService) Close() error      { return nil }
