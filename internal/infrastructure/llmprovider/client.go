package llmprovider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"conversiq-server/internal/domain/llm"
	"conversiq-server/internal/domain/outcome"
)

const maxErrorBody = 512

// Client implements the llm.Provider interface against an OpenAI-compatible
// server such as LM Studio. It makes exactly one attempt per call.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a Resty-backed client. The per-call deadline comes from
// the request context; timeout is an outer bound.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(0)
	if apiKey != "" {
		httpClient.SetAuthToken(apiKey)
	}
	return &Client{httpClient: httpClient}
}

// CreateChatCompletion calls /v1/chat/completions.
func (c *Client) CreateChatCompletion(ctx context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		body := resp.String()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &outcome.UpstreamError{StatusCode: resp.StatusCode(), Body: body}
	}

	var completion llm.ChatCompletionResponse
	if err := json.Unmarshal(resp.Body(), &completion); err != nil {
		return nil, &outcome.MalformedError{Reason: "decode completion: " + err.Error()}
	}
	return &completion, nil
}

// Ensure interface compliance.
var _ llm.Provider = (*Client)(nil)
