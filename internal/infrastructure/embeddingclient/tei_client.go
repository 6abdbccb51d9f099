package embeddingclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"conversiq-server/internal/domain/embedding"
	"conversiq-server/internal/domain/outcome"
)

// TEIClient talks to a text-embeddings-inference server (/embed, /info, /health).
type TEIClient struct {
	httpClient *resty.Client
	model      string
	log        zerolog.Logger
}

type teiEmbedRequest struct {
	Inputs    []string `json:"inputs"`
	Normalize bool     `json:"normalize"`
	Truncate  bool     `json:"truncate"`
}

// ModelInfo is the subset of /info the service checks.
type ModelInfo struct {
	ModelID        string `json:"model_id"`
	MaxInputLength int    `json:"max_input_length"`
}

// NewTEIClient creates a Resty-backed TEI client.
func NewTEIClient(baseURL, apiKey, model string, timeout time.Duration, log zerolog.Logger) *TEIClient {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(0)
	if apiKey != "" {
		httpClient.SetAuthToken(apiKey)
	}
	return &TEIClient{
		httpClient: httpClient,
		model:      model,
		log:        log.With().Str("component", "tei-client").Logger(),
	}
}

// Embed posts the texts to /embed and returns one vector per text.
func (c *TEIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(teiEmbedRequest{Inputs: texts, Normalize: true, Truncate: true}).
		Post("/embed")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &outcome.UpstreamError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var vectors [][]float32
	if err := json.Unmarshal(resp.Body(), &vectors); err != nil {
		return nil, &outcome.MalformedError{Reason: "decode embeddings: " + err.Error()}
	}
	if len(vectors) != len(texts) {
		return nil, &outcome.MalformedError{Reason: fmt.Sprintf("expected %d vectors, got %d", len(texts), len(vectors))}
	}
	return vectors, nil
}

// ValidateServer checks /health, reads /info and runs a test embedding.
func (c *TEIClient) ValidateServer(ctx context.Context, dimension int) error {
	resp, err := c.httpClient.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("embedding server not reachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("embedding server not healthy: status %d", resp.StatusCode())
	}

	var info ModelInfo
	resp, err = c.httpClient.R().SetContext(ctx).SetResult(&info).Get("/info")
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}
	if !resp.IsError() && c.model != "" && info.ModelID != "" && info.ModelID != c.model {
		c.log.Warn().Str("expected", c.model).Str("model", info.ModelID).Msg("embedding server runs a different model")
	}

	vectors, err := c.Embed(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("test embedding failed: %w", err)
	}
	if len(vectors[0]) != dimension {
		return fmt.Errorf("expected %d dimensions, got %d", dimension, len(vectors[0]))
	}
	return nil
}

var _ embedding.Client = (*TEIClient)(nil)
