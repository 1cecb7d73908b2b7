package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

// Ensure GenerationGateway implements the interface.
var _ driving.GenerationGateway = (*GenerationGateway)(nil)

const promptTemplate = `You are the knowledge assistant of a community. Answer using only the context below.
If the context does not contain the answer, reply exactly: "%s"

Context:
%s

Question: %s

Answer:`

// BuildPrompt renders the fixed answer template.
func BuildPrompt(question, contextText string) string {
	return fmt.Sprintf(promptTemplate, domain.NoKnowledgeAnswer, strings.TrimSpace(contextText), strings.TrimSpace(question))
}

// GenerationGateway serializes calls to a single language model.
type GenerationGateway struct {
	llm driven.LLMService
	sem *semaphore.Weighted
	log logger.Component
}

// NewGenerationGateway creates a gateway. llm may be nil, in which case
// every call fails with domain.ErrModelUnavailable.
func NewGenerationGateway(llm driven.LLMService) *GenerationGateway {
	return &GenerationGateway{
		llm: llm,
		sem: semaphore.NewWeighted(1),
		log: logger.For("generation"),
	}
}

// ModelName returns the model behind the gateway, or "" when none.
func (g *GenerationGateway) ModelName() string {
	if g.llm == nil {
		return ""
	}
	return g.llm.ModelName()
}

// Generate answers question from contextText within cfg.Timeout. The
// timeout covers the wait for the model as well as the call itself.
func (g *GenerationGateway) Generate(
	ctx context.Context, question, contextText string, cfg domain.GenerationConfig,
) (string, error) {
	if g.llm == nil {
		return "", domain.ErrModelUnavailable
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", g.classify(ctx, err)
	}
	defer g.sem.Release(1)

	prompt := BuildPrompt(question, contextText)
	g.log.Debug("prompt of %d chars to %s", len(prompt), g.llm.ModelName())

	text, err := g.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	})
	if err != nil {
		return "", g.classify(ctx, err)
	}
	return strings.TrimSpace(text), nil
}

func (g *GenerationGateway) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		g.log.Warn("generation timed out")
		return fmt.Errorf("%w: %w", domain.ErrGenerationTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, domain.ErrModelUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
}
