package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/domain/outcome"
	"conversiq-server/internal/infrastructure/metrics"
)

const (
	purposeReply   = "reply"
	purposeSummary = "summary"
)

// GeneratorConfig holds the completion parameters shared by replies and summaries.
type GeneratorConfig struct {
	Model            string
	Temperature      float64
	ReplyMaxTokens   int
	SummaryMaxTokens int
	Timeout          time.Duration
}

// Generator produces assistant replies and conversation summaries.
// Each call is a single attempt bounded by Timeout.
type Generator struct {
	provider Provider
	cfg      GeneratorConfig
	log      zerolog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(provider Provider, cfg GeneratorConfig, log zerolog.Logger) *Generator {
	return &Generator{
		provider: provider,
		cfg:      cfg,
		log:      log.With().Str("component", "llm-generator").Logger(),
	}
}

// GenerateReply asks the model for a reply informed by the recalled context.
func (g *Generator) GenerateReply(ctx context.Context, recalledContext, userMessage string) outcome.Result[string] {
	return g.complete(ctx, purposeReply, BuildReplyMessages(recalledContext, userMessage), g.cfg.ReplyMaxTokens)
}

// GenerateSummary asks the model to summarize the transcript. With no messages
// it returns a fixed summary without calling the model.
func (g *Generator) GenerateSummary(ctx context.Context, messages []conversation.Message) outcome.Result[string] {
	if len(messages) == 0 {
		return outcome.Success(EmptyConversationSummary)
	}
	return g.complete(ctx, purposeSummary, BuildSummaryMessages(messages), g.cfg.SummaryMaxTokens)
}

func (g *Generator) complete(ctx context.Context, purpose string, messages []ChatMessage, maxTokens int) outcome.Result[string] {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	temperature := g.cfg.Temperature
	req := ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		Temperature: &temperature,
	}
	if maxTokens > 0 {
		req.MaxTokens = &maxTokens
	}

	start := time.Now()
	resp, err := g.provider.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start).Seconds()

	var result outcome.Result[string]
	if err != nil {
		result = outcome.FromError[string](err)
	} else {
		result = extractContent(resp)
	}

	status := "ok"
	if !result.OK() {
		status = string(result.Kind())
		g.log.Debug().Err(result.Err()).Str("purpose", purpose).Str("failure_kind", status).Msg("chat completion failed")
	}
	metrics.RecordLLMCall(purpose, status, elapsed)
	return result
}

func extractContent(resp *ChatCompletionResponse) outcome.Result[string] {
	if resp == nil || len(resp.Choices) == 0 {
		return outcome.Failure[string](outcome.KindMalformed, &outcome.MalformedError{Reason: "no choices in completion"})
	}
	msg := resp.Choices[0].Message
	if msg == nil {
		return outcome.Failure[string](outcome.KindMalformed, &outcome.MalformedError{Reason: "first choice has no message"})
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return outcome.Failure[string](outcome.KindMalformed, &outcome.MalformedError{Reason: "empty completion content"})
	}
	return outcome.Success(text)
}
