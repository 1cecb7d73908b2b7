package driven

import "context"

// LLMService generates text with a language model.
//
// Implementations report an unreachable model with domain.ErrModelUnavailable
// and must honour ctx cancellation so callers can enforce timeouts.
type LLMService interface {
	// Generate produces a completion for prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation.
type GenerateOptions struct {
	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopP is nucleus sampling; zero leaves the model default.
	TopP float64

	// StopWords are sequences that stop generation.
	StopWords []string
}
