// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	localembed "github.com/custodia-labs/sage-cli/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/sage-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sage-cli/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/sage-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sage-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the AI adapters built from settings.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService

	// Warnings lists non-fatal problems, such as an unreachable model.
	Warnings []string
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.Embedding != nil {
		_ = s.Embedding.Close()
	}
	if s.LLM != nil {
		_ = s.LLM.Close()
	}
}

// NewServices builds both services. An embedding failure is fatal because
// nothing can be indexed without it. A missing or unreachable LLM is only a
// warning: documents can still be uploaded and trained, and ask reports
// the model as unavailable.
func NewServices(ctx context.Context, settings *domain.AppSettings) (*Services, error) {
	embed, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	if embed == nil {
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}

	out := &Services{Embedding: embed}

	llm, err := CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
		out.Warnings = append(out.Warnings, err.Error())
	case llm == nil:
		out.Warnings = append(out.Warnings, "no LLM provider configured")
	default:
		out.LLM = llm
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		if perr := llm.Ping(pingCtx); perr != nil {
			out.Warnings = append(out.Warnings, perr.Error())
		}
		cancel()
	}

	return out, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return localembed.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderLocal {
		return nil, fmt.Errorf("%s provider cannot generate text, use ollama or openai", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// embeddingDimensions prefers an explicit setting, then the known size of the model.
func embeddingDimensions(settings *domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.EmbeddingDimensions()[settings.Model]
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: embeddingDimensions(settings),
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: embeddingDimensions(settings),
	})
}
