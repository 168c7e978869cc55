package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OllamaClient) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewOllamaClient(OllamaConfig{
		BaseURL:           server.URL,
		Model:             "nomic-embed-text",
		Timeout:           2 * time.Second,
		RequestsPerSecond: -1, // no rate limiting in tests
	})
	return server, client
}

func TestOllamaClient_Embed(t *testing.T) {
	var gotRequest embedRequest
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float64{{0.1, 0.2, 0.3}},
		})
	})

	vector, err := client.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, "nomic-embed-text", gotRequest.Model)
	assert.Equal(t, "hello world", gotRequest.Input)
}

func TestOllamaClient_EmbedEmptyInput(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty input must not reach the server")
	})

	_, err := client.Embed(context.Background(), "   ")
	assert.Error(t, err)
}

func TestOllamaClient_EmbedServerError(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := client.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaClient_EmbedEmptyVector(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{}})
	})

	_, err := client.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
}

func TestOllamaClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	ctx := context.Background()
	var lastErr error
	for i := 0; i < 10; i++ {
		_, lastErr = client.Embed(ctx, "hello")
	}
	assert.ErrorIs(t, lastErr, ErrCircuitOpen, "sustained failures must trip the breaker")
}

func TestOllamaClient_HealthCheck(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/version", r.URL.Path)
		w.Write([]byte(`{"version":"0.5.0"}`))
	})

	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestOllamaClient_HealthCheckUnreachable(t *testing.T) {
	server, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	assert.Error(t, client.HealthCheck(context.Background()))
}

func TestNewOllamaClient_Defaults(t *testing.T) {
	client := NewOllamaClient(OllamaConfig{})
	assert.Equal(t, "http://localhost:11434", client.baseURL)
	assert.Equal(t, "nomic-embed-text", client.Model())
	assert.NotNil(t, client.limiter, "default config enables rate limiting")
}

func TestMockClient_Deterministic(t *testing.T) {
	mock := NewMockClient(8)
	ctx := context.Background()

	a1, err := mock.Embed(ctx, "same text")
	require.NoError(t, err)
	a2, err := mock.Embed(ctx, "same text")
	require.NoError(t, err)
	b, err := mock.Embed(ctx, "different text")
	require.NoError(t, err)

	assert.Equal(t, a1, a2, "same input must embed identically")
	assert.NotEqual(t, a1, b, "different inputs must embed differently")
	assert.Len(t, a1, 8)
	assert.Equal(t, 3, mock.Calls())
}
