package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/embedsync/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// newTestServer answers /v1/embeddings with the given status. On 200 it
// returns one two-dimensional vector per input.
func newTestServer(t *testing.T, status int, message string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": message},
			})
			return
		}

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(i), 1},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	server := newTestServer(t, http.StatusOK, "")
	embedder, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost(server.URL)))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(t.Context(), []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{2, 1}, vectors[2])
}

func TestEmbedder_EmbedText(t *testing.T) {
	server := newTestServer(t, http.StatusOK, "")
	embedder, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost(server.URL)))
	require.NoError(t, err)

	vector, err := embedder.EmbedText(t.Context(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vector)
}

func TestEmbedder_MapsErrors(t *testing.T) {
	t.Run("rate limit", func(t *testing.T) {
		server := newTestServer(t, http.StatusTooManyRequests, "slow down")
		embedder, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost(server.URL)))
		require.NoError(t, err)

		_, err = embedder.EmbedTexts(t.Context(), []string{"a"})

		require.Error(t, err)
		assert.True(t, llms.IsRateLimitError(err), "got %v", err)
	})

	t.Run("bad request", func(t *testing.T) {
		server := newTestServer(t, http.StatusBadRequest, "input too long")
		embedder, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost(server.URL)))
		require.NoError(t, err)

		_, err = embedder.EmbedTexts(t.Context(), []string{"a"})

		require.Error(t, err)
		assert.True(t, llms.IsInvalidRequestError(err), "got %v", err)
	})
}

func TestNewProvider(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		provider, err := NewProvider(ai.DefaultConfig())
		require.NoError(t, err)
		defer provider.Close()

		assert.Equal(t, ai.ProviderOpenAI, provider.Name())
		assert.NotNil(t, provider.Embedder())
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewProvider(&ai.Config{EmbeddingHost: "http://localhost"})
		assert.Error(t, err)
	})
}
