package driven

import "context"

// CompletionBackend turns a single prompt into generated text.
// One backend is chosen at startup from domain.SummarizerBackend.
//
// Implementations:
//   - OpenAI chat completions (hosted)
//   - Anthropic messages (hosted)
//   - Ollama generate (local)
type CompletionBackend interface {
	// GenerateCompletion returns the model's answer to prompt.
	// Implementations make exactly one request and never retry.
	GenerateCompletion(ctx context.Context, prompt string) (string, error)

	// Backend identifies which summarizer backend this is.
	Backend() string

	// ModelName returns the name of the language model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
