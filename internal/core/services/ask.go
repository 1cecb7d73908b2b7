package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AskConfig holds the per-question retrieval and generation parameters.
type AskConfig struct {
	TopK             int
	MaxContextTokens int
	// MinConfidence gates generation; 0 always asks the model.
	MinConfidence float64
	Generation    domain.GenerationConfig
	// Model is reported on answers.
	Model string
}

// AskConfigFromSettings derives an AskConfig from application settings.
func AskConfigFromSettings(s *domain.AppSettings) AskConfig {
	return AskConfig{
		TopK:             s.Retrieval.TopK,
		MaxContextTokens: s.Retrieval.MaxContextTokens,
		MinConfidence:    s.Retrieval.ConfidenceThreshold,
		Generation:       s.Generation.Config(),
		Model:            s.LLM.Model,
	}
}

// AskService answers questions: retrieve, generate, cite.
type AskService struct {
	retriever driving.Retriever
	gateway   driving.GenerationGateway
	cfg       AskConfig
	log       logger.Component
	now       func() time.Time
}

// NewAskService creates an ask service.
func NewAskService(retriever driving.Retriever, gateway driving.GenerationGateway, cfg AskConfig) *AskService {
	return &AskService{
		retriever: retriever,
		gateway:   gateway,
		cfg:       cfg,
		log:       logger.For("ask"),
		now:       time.Now,
	}
}

// Ask answers question. An empty index fails with domain.ErrNoKnowledge
// before the model is called. When the retrieved chunks score below
// MinConfidence the answer is domain.LowConfidenceAnswer and the model is
// not called either.
func (s *AskService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	start := s.now()
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	retrieved, err := s.retriever.AnswerContext(ctx, question, s.cfg.TopK, s.cfg.MaxContextTokens)
	if err != nil {
		return nil, err
	}

	sources := make([]domain.SourceRef, 0, len(retrieved.Chunks))
	scores := make([]float64, 0, len(retrieved.Chunks))
	for _, sc := range retrieved.Chunks {
		sources = append(sources, domain.SourceRef{
			DocumentID: sc.Chunk.DocumentID,
			ChunkID:    sc.Chunk.ID,
			Title:      sc.DocumentTitle,
			Score:      sc.Score,
		})
		scores = append(scores, sc.Score)
	}
	confidence := Confidence(scores)

	if confidence < s.cfg.MinConfidence {
		s.log.Debug("confidence %.2f below %.2f, not generating", confidence, s.cfg.MinConfidence)
		return &domain.Answer{
			Question:      question,
			Text:          domain.LowConfidenceAnswer,
			Sources:       sources,
			Confidence:    confidence,
			LowConfidence: true,
			Duration:      s.now().Sub(start),
		}, nil
	}

	text, err := s.gateway.Generate(ctx, question, retrieved.Text, s.cfg.Generation)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{
		Question:   question,
		Text:       text,
		Sources:    sources,
		Confidence: confidence,
		Model:      s.cfg.Model,
		Duration:   s.now().Sub(start),
	}
	s.log.Debug("answered in %s from %d sources", answer.Duration, len(sources))
	return answer, nil
}

// Confidence is the mean of scores weighted by exp(linspace(-1, 0, n)),
// clamped to [0, 1]. Later scores weigh more.
func Confidence(scores []float64) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i, s := range scores {
		x := -1.0
		if n > 1 {
			x = -1 + float64(i)/float64(n-1)
		}
		sum += s * math.Exp(x)
	}
	return math.Max(0, math.Min(1, sum/float64(n)))
}
