package driven

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// ProviderProbe checks provider settings against the live service before
// they are relied on. An unconfigured provider passes.
type ProviderProbe interface {
	// ProbeEmbedding returns the vector size the model produced, or 0 when
	// no provider is configured.
	ProbeEmbedding(ctx context.Context, cfg *domain.EmbeddingSettings) (int, error)
	ProbeLLM(ctx context.Context, cfg *domain.LLMSettings) error
}
