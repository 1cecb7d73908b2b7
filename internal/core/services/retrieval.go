package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

const contextSeparator = "\n\n"

// Retriever finds the chunks closest to a question and packs them into a
// token budget.
type Retriever struct {
	docs     driven.DocumentStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	log      logger.Component
}

// NewRetriever creates a retriever. embedder must be the service used for
// ingestion.
func NewRetriever(docs driven.DocumentStore, index driven.VectorIndex, embedder driven.EmbeddingService) *Retriever {
	return &Retriever{
		docs:     docs,
		index:    index,
		embedder: embedder,
		log:      logger.For("retrieval"),
	}
}

// EstimateTokens approximates the token count of s as ceil(runes/4).
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

// AnswerContext returns the packed context for question.
func (r *Retriever) AnswerContext(
	ctx context.Context, question string, k, maxContextTokens int,
) (*domain.RetrievedContext, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if k <= 0 || maxContextTokens <= 0 {
		return nil, fmt.Errorf("%w: k and maxContextTokens must be positive", domain.ErrInvalidInput)
	}

	count, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}
	if count == 0 {
		return nil, domain.ErrNoKnowledge
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	query, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	hits, err := r.index.Query(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	scored, err := r.hydrate(ctx, hits)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return nil, domain.ErrNoKnowledge
	}

	packed := pack(scored, maxContextTokens)
	r.log.Debug("%d hits, %d used, ~%d tokens", len(hits), len(packed.Chunks), packed.Tokens)
	return packed, nil
}

// hydrate loads the chunks behind hits, dropping any whose document is not
// indexed or no longer exists.
func (r *Retriever) hydrate(ctx context.Context, hits []driven.VectorHit) ([]domain.ScoredChunk, error) {
	docs := make(map[string]*domain.Document)
	scored := make([]domain.ScoredChunk, 0, len(hits))

	for _, hit := range hits {
		doc, seen := docs[hit.DocumentID]
		if !seen {
			d, err := r.docs.GetDocument(ctx, hit.DocumentID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				d = nil
			case err != nil:
				return nil, fmt.Errorf("load document %s: %w", hit.DocumentID, err)
			}
			docs[hit.DocumentID] = d
			doc = d
		}
		if doc == nil || doc.Status != domain.StatusIndexed {
			continue
		}

		chunk, err := r.docs.GetChunk(ctx, hit.ChunkID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load chunk %s: %w", hit.ChunkID, err)
		}

		scored = append(scored, domain.ScoredChunk{
			Chunk:         *chunk,
			DocumentTitle: doc.Title,
			Score:         hit.Similarity,
		})
	}
	return scored, nil
}

// pack appends chunks in score order until the next would overflow
// maxTokens. A first chunk larger than the budget is truncated so the
// context is never empty.
func pack(scored []domain.ScoredChunk, maxTokens int) *domain.RetrievedContext {
	var b strings.Builder
	used := make([]domain.ScoredChunk, 0, len(scored))

	for i := range scored {
		block := fmt.Sprintf("[%d] %s\n%s", len(used)+1, scored[i].DocumentTitle, scored[i].Chunk.Content)
		candidate := block
		if b.Len() > 0 {
			candidate = b.String() + contextSeparator + block
		}
		if EstimateTokens(candidate) > maxTokens {
			if len(used) == 0 {
				b.WriteString(truncateRunes(block, maxTokens*4))
				used = append(used, scored[i])
			}
			break
		}
		b.Reset()
		b.WriteString(candidate)
		used = append(used, scored[i])
	}

	text := b.String()
	return &domain.RetrievedContext{
		Text:   text,
		Chunks: used,
		Tokens: EstimateTokens(text),
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
