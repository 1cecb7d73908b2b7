package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

var _ driven.ProviderProbe = (*Probe)(nil)

// probeText is embedded to learn the real vector size of a model.
const probeText = "sage provider check"

// Probe builds a throwaway adapter from settings and exercises it.
type Probe struct {
	timeout time.Duration
}

// NewProbe creates a probe. A zero timeout selects pingTimeout.
func NewProbe(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = pingTimeout
	}
	return &Probe{timeout: timeout}
}

// ProbeEmbedding pings the provider and embeds a sample sentence, so a
// dimension setting that does not match the model is caught up front.
func (p *Probe) ProbeEmbedding(ctx context.Context, cfg *domain.EmbeddingSettings) (int, error) {
	svc, err := CreateEmbeddingService(cfg)
	if err != nil || svc == nil {
		return 0, err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return 0, err
	}
	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return 0, err
	}
	if len(vec) != svc.Dimensions() {
		return 0, fmt.Errorf("%w: %s produced %d dimensions, expected %d",
			domain.ErrDimensionMismatch, svc.ModelName(), len(vec), svc.Dimensions())
	}
	return len(vec), nil
}

// ProbeLLM pings the provider.
func (p *Probe) ProbeLLM(ctx context.Context, cfg *domain.LLMSettings) error {
	svc, err := CreateLLMService(cfg)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return svc.Ping(ctx)
}
