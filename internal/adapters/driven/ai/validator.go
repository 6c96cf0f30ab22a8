package ai

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations by pinging them.
type ConfigValidator struct {
	dimensions int
}

// NewConfigValidator creates a validator. dimensions is passed to embedders
// that need it at construction.
func NewConfigValidator(dimensions int) *ConfigValidator {
	return &ConfigValidator{dimensions: dimensions}
}

// ValidateEmbedding creates the embedder and pings it.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(config, v.dimensions)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateSummarizer creates the completion backend and pings it.
func (v *ConfigValidator) ValidateSummarizer(config *domain.SummarizerSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}

	svc, err := CreateCompletionBackend(config)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
