package driven

import "context"

// LLMService provides text completion for answer generation and for
// LLM-backed pipeline stages (metadata extraction).
//
// Implementations may include:
//   - OpenAI (gpt-4o, gpt-4o-mini)
//   - Any chat-completions compatible endpoint (Azure OpenAI, local servers)
type LLMService interface {
	// Generate produces a single non-streaming completion for a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before committing to a configuration.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
