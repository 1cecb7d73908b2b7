// Package ollama generates answers with a model served by Ollama.
package ollama

import (
	"context"
	"time"

	"github.com/custodia-labs/sage-cli/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

// Defaults for an unset LLMConfig field.
const (
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service. Timeout bounds
// the transport; callers enforce shorter limits through the context.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService runs non-streamed completions through /api/generate.
type LLMService struct {
	api   *ollamaapi.Client
	model string
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   ollamaapi.New(cfg.BaseURL, cfg.Timeout, domain.ErrModelUnavailable),
		model: cfg.Model,
	}
}

// Generate produces a completion. A zero temperature is sent explicitly so
// the model default does not apply.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	temperature := opts.Temperature
	return s.api.Generate(ctx, ollamaapi.GenerateRequest{
		Model:  s.model,
		Prompt: prompt,
		Options: &ollamaapi.Options{
			NumPredict:  opts.MaxTokens,
			Temperature: &temperature,
			TopP:        opts.TopP,
			Stop:        opts.StopWords,
		},
	})
}

// ModelName returns the model.
func (s *LLMService) ModelName() string { return s.model }

// Ping checks the server is reachable.
func (s *LLMService) Ping(ctx context.Context) error { return s.api.Ping(ctx) }

// Close is a no-op.
func (s *LLMService) Close() error { return nil }
