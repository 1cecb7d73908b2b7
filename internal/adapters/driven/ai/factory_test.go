package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localembed "github.com/custodia-labs/sage-cli/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

func TestServices_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		s := &Services{}
		// Should not panic
		s.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantDims int
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured settings returns nil", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{name: "unknown provider returns nil", settings: &domain.EmbeddingSettings{Provider: "unknown"}, wantNil: true},
		{
			name:     "local provider",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderLocal, Dimensions: 256},
			wantDims: 256,
		},
		{
			name:     "ollama provider uses known model size",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm"},
			wantDims: 384,
		},
		{
			name:     "ollama provider with explicit size",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "custom", Dimensions: 100},
			wantDims: 100,
		},
		{
			name:     "openai provider",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
			wantDims: 1536,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	t.Run("nil settings", func(t *testing.T) {
		svc, err := CreateLLMService(nil)
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("local provider cannot generate", func(t *testing.T) {
		_, err := CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderLocal})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot generate text")
	})

	t.Run("ollama", func(t *testing.T) {
		svc, err := CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"})
		require.NoError(t, err)
		assert.Equal(t, "llama3.2", svc.ModelName())
	})

	t.Run("openai", func(t *testing.T) {
		svc, err := CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini"})
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", svc.ModelName())
	})
}

func TestNewServices(t *testing.T) {
	t.Run("unreachable llm is a warning", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		settings := domain.DefaultAppSettings()
		settings.LLM.BaseURL = url

		svcs, err := NewServices(context.Background(), &settings)
		require.NoError(t, err)
		defer svcs.Close()

		assert.IsType(t, &localembed.EmbeddingService{}, svcs.Embedding)
		assert.NotNil(t, svcs.LLM)
		require.Len(t, svcs.Warnings, 1)
		assert.Contains(t, svcs.Warnings[0], domain.ErrModelUnavailable.Error())
	})

	t.Run("reachable llm", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"models":[]}`))
		}))
		defer srv.Close()

		settings := domain.DefaultAppSettings()
		settings.LLM.BaseURL = srv.URL

		svcs, err := NewServices(context.Background(), &settings)
		require.NoError(t, err)
		assert.Empty(t, svcs.Warnings)
	})

	t.Run("no llm provider", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.LLM.Provider = ""

		svcs, err := NewServices(context.Background(), &settings)
		require.NoError(t, err)
		assert.Nil(t, svcs.LLM)
		assert.Equal(t, []string{"no LLM provider configured"}, svcs.Warnings)
	})

	t.Run("no embedding provider", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Provider = ""

		_, err := NewServices(context.Background(), &settings)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}
