package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	s := NewLLMService(LLMConfig{})

	assert.Equal(t, ollamaapi.DefaultBaseURL, s.api.BaseURL())
	assert.Equal(t, DefaultLLMModel, s.ModelName())
	assert.Equal(t, DefaultLLMTimeout, s.api.Timeout())
	assert.NoError(t, s.Close())
}

func TestLLMService_Generate(t *testing.T) {
	var got ollamaapi.GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaapi.GenerateResponse{Response: "The deadline is March 30.", Done: true})
	}))
	defer srv.Close()

	out, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "prompt", driven.GenerateOptions{
		MaxTokens: 512,
		TopP:      0.1,
		StopWords: []string{"\n\n"},
	})

	require.NoError(t, err)
	assert.Equal(t, "The deadline is March 30.", out)
	assert.Equal(t, "llama3.2", got.Model)
	assert.Equal(t, "prompt", got.Prompt)
	require.NotNil(t, got.Options)
	assert.Equal(t, 512, got.Options.NumPredict)
	require.NotNil(t, got.Options.Temperature)
	assert.Equal(t, 0.0, *got.Options.Temperature)
	assert.Equal(t, 0.1, got.Options.TopP)
	assert.Equal(t, []string{"\n\n"}, got.Options.Stop)
}

func TestLLMService_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model 'x' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewLLMService(LLMConfig{BaseURL: srv.URL})

	_, err := s.Generate(context.Background(), "p", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), domain.ErrModelUnavailable)
}
