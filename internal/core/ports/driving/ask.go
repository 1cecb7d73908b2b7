package driving

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// Retriever assembles budgeted context for a question.
type Retriever interface {
	// AnswerContext retrieves the top k chunks and packs them into at most
	// maxContextTokens. Fails with domain.ErrNoKnowledge when nothing is indexed.
	AnswerContext(ctx context.Context, question string, k, maxContextTokens int) (*domain.RetrievedContext, error)
}

// GenerationGateway invokes the language model with a fixed prompt template.
type GenerationGateway interface {
	// Generate answers question from contextText.
	Generate(ctx context.Context, question, contextText string, cfg domain.GenerationConfig) (string, error)
}

// AskService answers questions from the indexed documents.
type AskService interface {
	// Ask retrieves context, generates an answer and cites the chunks used.
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}
