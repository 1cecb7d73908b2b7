package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(" When is demo day? ", "[1] Events\nDemo day is the last Friday.")

	assert.Contains(t, prompt, "Context:\n[1] Events\nDemo day is the last Friday.")
	assert.Contains(t, prompt, "Question: When is demo day?")
	assert.Contains(t, prompt, domain.NoKnowledgeAnswer)
}

func TestGenerationGateway_Generate(t *testing.T) {
	llm := &mockLLM{response: "  Friday.\n"}
	gw := NewGenerationGateway(llm)

	got, err := gw.Generate(context.Background(), "When?", "ctx", domain.GenerationConfig{
		Temperature: 0.1, TopP: 0.2, MaxTokens: 64, Timeout: time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, "Friday.", got)
	require.Len(t, llm.opts, 1)
	assert.Equal(t, 64, llm.opts[0].MaxTokens)
	assert.InDelta(t, 0.1, llm.opts[0].Temperature, 1e-9)
	assert.InDelta(t, 0.2, llm.opts[0].TopP, 1e-9)
	assert.Equal(t, "mock-llm", gw.ModelName())
}

func TestGenerationGateway_NilModel(t *testing.T) {
	gw := NewGenerationGateway(nil)

	_, err := gw.Generate(context.Background(), "q", "c", domain.GenerationConfig{})

	require.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Empty(t, gw.ModelName())
}

func TestGenerationGateway_ModelErrors(t *testing.T) {
	t.Run("unavailable passes through", func(t *testing.T) {
		gw := NewGenerationGateway(&mockLLM{err: domain.ErrModelUnavailable})
		_, err := gw.Generate(context.Background(), "q", "c", domain.GenerationConfig{})
		require.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("other errors become unavailable", func(t *testing.T) {
		gw := NewGenerationGateway(&mockLLM{err: errors.New("boom")})
		_, err := gw.Generate(context.Background(), "q", "c", domain.GenerationConfig{})
		require.ErrorIs(t, err, domain.ErrModelUnavailable)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestGenerationGateway_Timeout(t *testing.T) {
	llm := &mockLLM{gate: make(chan struct{})}
	defer close(llm.gate)
	gw := NewGenerationGateway(llm)

	start := time.Now()
	_, err := gw.Generate(context.Background(), "q", "c", domain.GenerationConfig{Timeout: 30 * time.Millisecond})

	require.ErrorIs(t, err, domain.ErrGenerationTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGenerationGateway_SerializesCalls(t *testing.T) {
	llm := &mockLLM{response: "ok", gate: make(chan struct{})}
	gw := NewGenerationGateway(llm)

	first := make(chan error, 1)
	go func() {
		_, err := gw.Generate(context.Background(), "first", "c", domain.GenerationConfig{Timeout: 5 * time.Second})
		first <- err
	}()
	require.Eventually(t, func() bool { return llm.calls() == 1 }, time.Second, 5*time.Millisecond)

	// The queued caller times out waiting without reaching the model.
	_, err := gw.Generate(context.Background(), "second", "c", domain.GenerationConfig{Timeout: 30 * time.Millisecond})
	require.ErrorIs(t, err, domain.ErrGenerationTimeout)
	assert.Equal(t, 1, llm.calls())

	close(llm.gate)
	require.NoError(t, <-first)
}

func TestGenerationGateway_CallerCancel(t *testing.T) {
	llm := &mockLLM{gate: make(chan struct{})}
	defer close(llm.gate)
	gw := NewGenerationGateway(llm)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := gw.Generate(ctx, "q", "c", domain.GenerationConfig{Timeout: 5 * time.Second})

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrGenerationTimeout)
}
