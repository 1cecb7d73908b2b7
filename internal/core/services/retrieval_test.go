package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 2, EstimateTokens("héllo"))
}

func TestRetriever_EmptyIndex(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, "Untrained", "nothing indexed yet")

	_, err := env.retriever.AnswerContext(context.Background(), "what is this?", 3, 500)

	require.ErrorIs(t, err, domain.ErrNoKnowledge)
}

func TestRetriever_EmptyQuestion(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.retriever.AnswerContext(context.Background(), "  ", 3, 500)

	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetriever_SelfSimilarityRanksFirst(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, "Events", "Community calls happen every Thursday evening.")
	target := env.add(t, "Validators", "Validators stake tokens to secure consensus on the network.")
	env.add(t, "Grants", "Grant proposals are reviewed by the council each month.")
	env.train(t, listIDs(t, env)...)

	got, err := env.retriever.AnswerContext(context.Background(), target.Content, 3, 1000)

	require.NoError(t, err)
	require.NotEmpty(t, got.Chunks)
	assert.Equal(t, target.ID, got.Chunks[0].Chunk.DocumentID)
	assert.InDelta(t, 1.0, got.Chunks[0].Score, 1e-6)
	assert.True(t, strings.HasPrefix(got.Text, "[1] Validators\n"))
	assert.Equal(t, []string{target.ID}, got.DocumentIDs()[:1])
}

func TestRetriever_DropsHitsOfUnindexedDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.add(t, "Pending", "Vectors without an indexed document.")

	vec, err := env.embedder.Embed(ctx, doc.Content)
	require.NoError(t, err)
	require.NoError(t, env.docs.ReplaceChunks(ctx, doc.ID, []domain.Chunk{{
		ID: domain.ChunkID(doc.ID, 0), DocumentID: doc.ID, Content: doc.Content, End: len(doc.Content),
	}}))
	require.NoError(t, env.index.Upsert(ctx, doc.ID, []driven.IndexedVector{
		{ChunkID: domain.ChunkID(doc.ID, 0), Vector: vec},
	}))

	_, err = env.retriever.AnswerContext(ctx, doc.Content, 3, 500)

	require.ErrorIs(t, err, domain.ErrNoKnowledge)
}

func TestRetriever_RespectsTokenBudget(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"one", "two", "three"} {
		env.add(t, title, strings.Repeat("community builders share knowledge ", 4))
	}
	env.train(t, listIDs(t, env)...)

	got, err := env.retriever.AnswerContext(context.Background(), "community knowledge", 3, 60)

	require.NoError(t, err)
	assert.LessOrEqual(t, got.Tokens, 60)
	assert.Less(t, len(got.Chunks), 3)
}

func TestPack(t *testing.T) {
	scored := []domain.ScoredChunk{
		{Chunk: domain.Chunk{ID: "a#0", Content: strings.Repeat("a", 40)}, DocumentTitle: "T", Score: 0.9},
		{Chunk: domain.Chunk{ID: "b#0", Content: strings.Repeat("b", 40)}, DocumentTitle: "T", Score: 0.8},
		{Chunk: domain.Chunk{ID: "c#0", Content: strings.Repeat("c", 40)}, DocumentTitle: "T", Score: 0.7},
	}

	t.Run("all fit", func(t *testing.T) {
		got := pack(scored, 1000)
		assert.Len(t, got.Chunks, 3)
		assert.Equal(t, 3, strings.Count(got.Text, "\n\n")+1)
		assert.Contains(t, got.Text, "[3] T\n")
	})

	t.Run("stops at first overflow", func(t *testing.T) {
		got := pack(scored, 20)
		require.Len(t, got.Chunks, 1)
		assert.Equal(t, "a#0", got.Chunks[0].Chunk.ID)
		assert.LessOrEqual(t, got.Tokens, 20)
	})

	t.Run("truncates an oversized first chunk", func(t *testing.T) {
		got := pack(scored, 5)
		require.Len(t, got.Chunks, 1)
		assert.LessOrEqual(t, got.Tokens, 5)
		assert.True(t, strings.HasPrefix(got.Text, "[1] T\n"))
		assert.True(t, strings.HasPrefix("[1] T\n"+scored[0].Chunk.Content, got.Text))
		assert.Equal(t, 5*4, len(got.Text))
	})
}

func listIDs(t *testing.T, env *testEnv) []string {
	t.Helper()
	docs, err := env.documents.List(context.Background(), domain.DocumentFilter{})
	require.NoError(t, err)
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}
	return ids
}
