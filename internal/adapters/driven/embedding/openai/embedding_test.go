package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

func embeddingServer(t *testing.T, vectors [][]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/embeddings":
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			// Reverse order to prove results are sorted by index.
			data := make([]map[string]any, 0, len(vectors))
			for i := len(vectors) - 1; i >= 0; i-- {
				data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vectors[i]})
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "m"})
		case "/models":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestNewEmbeddingService_Dimensions(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		dims   int
		reduce bool
	}{
		{"default model", Config{}, 1536, false},
		{"large model", Config{Model: "text-embedding-3-large"}, 3072, false},
		{"reduced", Config{Model: "text-embedding-3-small", Dimensions: 512}, 512, true},
		{"unknown model", Config{Model: "nomic", Dimensions: 768}, 768, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEmbeddingService(tt.cfg)
			assert.Equal(t, tt.dims, s.Dimensions())
			assert.Equal(t, tt.reduce, s.reduce)
		})
	}
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	srv := embeddingServer(t, [][]float32{{1, 0}, {0, 1}})
	defer srv.Close()

	s := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "compat", Dimensions: 2})
	out, err := s.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
	assert.Equal(t, "compat", s.ModelName())
}

func TestEmbeddingService_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, [][]float32{{1, 0, 0}})
	defer srv.Close()

	s := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "compat", Dimensions: 2})
	_, err := s.Embed(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbeddingService_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{APIKey: "x", BaseURL: srv.URL})
	_, err := s.Embed(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	assert.ErrorIs(t, s.Ping(context.Background()), domain.ErrEmbeddingUnavailable)
}

func TestEmbeddingService_Ping(t *testing.T) {
	srv := embeddingServer(t, nil)
	defer srv.Close()

	s := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
