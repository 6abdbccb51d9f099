package embeddingclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversiq-server/internal/config"
	"conversiq-server/internal/domain/outcome"
)

func vectorOf(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = 0.5
	}
	return v
}

func newTEIServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ModelInfo{ModelID: "sentence-transformers/all-MiniLM-L6-v2", MaxInputLength: 256})
	})
	mux.HandleFunc("/embed", func(w http.ResponseWriter, r *http.Request) {
		var req teiEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assert.True(t, req.Normalize)
		out := make([][]float32, len(req.Inputs))
		for i := range out {
			out[i] = vectorOf(dim)
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestTEIClientEmbed(t *testing.T) {
	server := newTEIServer(t, 384)
	client := NewTEIClient(server.URL, "", "sentence-transformers/all-MiniLM-L6-v2", time.Second, zerolog.Nop())

	vectors, err := client.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 384)

	require.NoError(t, client.ValidateServer(context.Background(), 384))
	assert.Error(t, client.ValidateServer(context.Background(), 1024))
}

func TestTEIClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewTEIClient(server.URL, "", "", time.Second, zerolog.Nop())
	_, err := client.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, outcome.KindUnavailable, outcome.Classify(err))

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	defer garbage.Close()

	_, err = NewTEIClient(garbage.URL, "", "", time.Second, zerolog.Nop()).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, outcome.KindMalformed, outcome.Classify(err))
}

func TestOpenAIClientEmbed(t *testing.T) {
	var gotPath, gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model

		w.Header().Set("Content-Type", "application/json")
		// Return items out of order to check index handling.
		fmt.Fprintf(w, `{"object":"list","model":%q,"data":[`, req.Model)
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := vectorOf(384)
			vec[0] = float32(i)
			raw, _ := json.Marshal(vec)
			fmt.Fprintf(w, `{"object":"embedding","index":%d,"embedding":%s}`, i, raw)
			if i > 0 {
				fmt.Fprint(w, ",")
			}
		}
		fmt.Fprint(w, `]}`)
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "lm-studio", "text-embedding-all-minilm-l6-v2", time.Second)
	vectors, err := client.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, "/v1/embeddings", gotPath)
	assert.Equal(t, "text-embedding-all-minilm-l6-v2", gotModel)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(0), vectors[0][0])
	assert.Equal(t, float32(1), vectors[1][0])

	require.NoError(t, client.ValidateServer(context.Background(), 384))
}

func TestOpenAIClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model not loaded","type":"server_error"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAIClient(server.URL+"/v1", "", "m", time.Second).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, outcome.KindUpstream, outcome.Classify(err))
}

func TestNewFromConfigSelectsProvider(t *testing.T) {
	cfg := &config.Config{EmbeddingProvider: "openai", EmbeddingServiceURL: "http://localhost:1234", EmbeddingTimeout: time.Second}
	assert.IsType(t, &OpenAIClient{}, NewFromConfig(cfg, zerolog.Nop()))

	cfg.EmbeddingProvider = "tei"
	assert.IsType(t, &TEIClient{}, NewFromConfig(cfg, zerolog.Nop()))
}
