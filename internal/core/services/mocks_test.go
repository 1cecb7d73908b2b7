package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/sage-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sage-cli/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/postprocessors/chunker"
)

// --- Mock implementations ---

// mockEmbedder wraps the hashing embedder and can fail or block on demand.
type mockEmbedder struct {
	inner *local.EmbeddingService

	// failOn fails EmbedBatch when any text contains it.
	failOn string
	// gate, when set, blocks EmbedBatch until closed.
	gate chan struct{}

	mu    sync.Mutex
	calls int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{inner: local.NewEmbeddingService(local.DefaultDimensions)}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.inner.Embed(ctx, text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.failOn != "" {
		for _, t := range texts {
			if strings.Contains(t, m.failOn) {
				return nil, domain.ErrEmbeddingUnavailable
			}
		}
	}
	return m.inner.EmbedBatch(ctx, texts)
}

func (m *mockEmbedder) Dimensions() int { return m.inner.Dimensions() }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) batchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLLM records prompts and returns a canned response.
type mockLLM struct {
	response string
	err      error
	// gate, when set, blocks Generate until closed or ctx is done.
	gate chan struct{}

	mu      sync.Mutex
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockRetriever returns a fixed context.
type mockRetriever struct {
	result *domain.RetrievedContext
	err    error
}

func (m *mockRetriever) AnswerContext(_ context.Context, _ string, _, _ int) (*domain.RetrievedContext, error) {
	return m.result, m.err
}

// --- Test environment ---

type testEnv struct {
	docs       *memory.DocumentStore
	jobs       *memory.JobStore
	index      *vectorindex.MemoryIndex
	embedder   *mockEmbedder
	controller *IngestionController
	documents  *DocumentService
	retriever  *Retriever
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		docs:     memory.NewDocumentStore(),
		jobs:     memory.NewJobStore(),
		index:    vectorindex.NewMemoryIndex(0),
		embedder: newMockEmbedder(),
	}
	env.controller = NewIngestionController(env.docs, env.jobs, env.index, env.embedder,
		chunker.New(chunker.WithChunkSize(200), chunker.WithOverlap(20)))
	env.documents = NewDocumentService(env.docs, env.index, env.controller)
	env.retriever = NewRetriever(env.docs, env.index, env.embedder)
	return env
}

// peer builds a second controller over the same stores, standing in for
// another sage process using the same data directory.
func (e *testEnv) peer() *IngestionController {
	return NewIngestionController(e.docs, e.jobs, e.index, e.embedder,
		chunker.New(chunker.WithChunkSize(200), chunker.WithOverlap(20)))
}

func (e *testEnv) add(t *testing.T, title, content string) *domain.Document {
	t.Helper()
	doc, err := e.documents.Add(context.Background(), domain.NewDocument{
		Title:    title,
		Category: domain.CategoryKnowledge,
		Content:  content,
	})
	require.NoError(t, err)
	return doc
}

// train submits ids and waits for the job to finish.
func (e *testEnv) train(t *testing.T, ids ...string) *domain.IngestionJob {
	t.Helper()
	ctx := context.Background()
	jobID, err := e.controller.Submit(ctx, ids)
	require.NoError(t, err)
	job, err := e.controller.Wait(ctx, jobID)
	require.NoError(t, err)
	return job
}
