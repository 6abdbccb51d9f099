package embeddingclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"conversiq-server/internal/domain/embedding"
	"conversiq-server/internal/domain/outcome"
)

// OpenAIClient calls an OpenAI-compatible /v1/embeddings endpoint (LM Studio, vLLM, OpenAI).
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a go-openai backed embedding client.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Embed returns one vector per text, ordered by the response index.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, translateError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &outcome.MalformedError{Reason: fmt.Sprintf("expected %d vectors, got %d", len(texts), len(resp.Data))}
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, &outcome.MalformedError{Reason: fmt.Sprintf("embedding index %d out of range", item.Index)}
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// ValidateServer runs a test embedding and checks its dimension.
func (c *OpenAIClient) ValidateServer(ctx context.Context, dimension int) error {
	vectors, err := c.Embed(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("test embedding failed: %w", err)
	}
	if len(vectors[0]) != dimension {
		return fmt.Errorf("expected %d dimensions, got %d", dimension, len(vectors[0]))
	}
	return nil
}

func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &outcome.UpstreamError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &outcome.UpstreamError{StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body)}
	}
	return err
}

var _ embedding.Client = (*OpenAIClient)(nil)
