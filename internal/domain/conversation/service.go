package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"conversiq-server/internal/domain/outcome"
	"conversiq-server/internal/utils/platformerrors"
)

const (
	// ReplyUnavailable is persisted as the AI message when no reply could be generated.
	ReplyUnavailable = "(AI unavailable right now.)"
	// SummaryFailedPrefix precedes the failure kind when no summary could be generated.
	SummaryFailedPrefix = "Summary generation failed: "

	MessageContentRequired = "Message content required."
)

var tracer = otel.Tracer("conversiq/conversation")

// Embedder turns text into a normalized vector. An empty result means "skip".
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Recaller assembles context from earlier messages. It never fails.
type Recaller interface {
	RecallContext(ctx context.Context, query string, conversationID uint, excludeMessageID uint) RecalledContext
}

// ReplyGenerator asks the chat model for an assistant reply.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, recalledContext, userMessage string) outcome.Result[string]
}

// SummaryGenerator asks the chat model for a conversation summary.
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, messages []Message) outcome.Result[string]
}

// Service orchestrates conversations, messages and the recall pipeline.
type Service struct {
	repo      Repository
	messages  MessageRepository
	embedder  Embedder
	recaller  Recaller
	replies   ReplyGenerator
	summaries SummaryGenerator
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a conversation service.
func NewService(
	repo Repository,
	messages MessageRepository,
	embedder Embedder,
	recaller Recaller,
	replies ReplyGenerator,
	summaries SummaryGenerator,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		messages:  messages,
		embedder:  embedder,
		recaller:  recaller,
		replies:   replies,
		summaries: summaries,
		log:       log.With().Str("component", "conversation-service").Logger(),
		now:       time.Now,
	}
}

// Create starts a new active conversation.
func (s *Service) Create(ctx context.Context, title string) (*Conversation, error) {
	normalized, ok := NormalizeTitle(title)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("title is required and must be at most %d characters", MaxTitleLength), nil)
	}

	conv := &Conversation{
		Title:     normalized,
		Status:    StatusActive,
		StartTime: s.now().UTC(),
		Messages:  []Message{},
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}
	return conv, nil
}

// List returns every conversation, newest first, with messages.
func (s *Service) List(ctx context.Context) ([]*Conversation, error) {
	convs, err := s.repo.List(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	return convs, nil
}

// Get returns a conversation with its ordered messages.
func (s *Service) Get(ctx context.Context, id uint) (*Conversation, error) {
	conv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}
	return conv, nil
}

// Update applies a partial update. Status may only move from active to ended.
func (s *Service) Update(ctx context.Context, id uint, update Update) (*Conversation, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		title, ok := NormalizeTitle(*update.Title)
		if !ok {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("title is required and must be at most %d characters", MaxTitleLength), nil)
		}
		conv.Title = title
	}

	if update.Status != nil {
		next := *update.Status
		if !next.Valid() {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("unknown status %q", next), nil)
		}
		if conv.IsEnded() && next == StatusActive {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
				"an ended conversation cannot be reopened", nil)
		}
		if next == StatusEnded && conv.EndTime == nil {
			endTime := s.now().UTC()
			conv.EndTime = &endTime
		}
		conv.Status = next
	}

	if err := s.repo.Update(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update conversation")
	}
	return conv, nil
}

// Delete removes a conversation and, by cascade, its messages.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}
	return nil
}

// AddMessage stores the user's message, recalls context, generates and stores
// the AI reply. Only persistence failures are returned; every external
// failure degrades to a pending embedding, empty context or placeholder reply.
func (s *Service) AddMessage(ctx context.Context, conversationID uint, content string) (*AddMessageResult, error) {
	ctx, span := tracer.Start(ctx, "conversation.AddMessage")
	defer span.End()
	span.SetAttributes(attribute.Int("conversation.id", int(conversationID)))

	conv, err := s.repo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			MessageContentRequired, nil)
	}

	log := s.log.With().Uint("conversation_id", conv.ID).Logger()

	userMsg := &Message{
		ConversationID: conv.ID,
		Sender:         SenderUser,
		Content:        content,
		Timestamp:      s.now().UTC(),
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to store user message")
	}

	s.storeEmbedding(ctx, userMsg, log)

	recalled := s.recall(ctx, content, conv.ID, userMsg.ID)

	replyCtx, replySpan := tracer.Start(ctx, "conversation.GenerateReply")
	reply := s.replies.GenerateReply(replyCtx, recalled.Text, content)
	replySpan.End()

	replyStatus := ReplyStatusOK
	if !reply.OK() {
		replyStatus = string(reply.Kind())
		log.Warn().Err(reply.Err()).Str("failure_kind", replyStatus).Msg("reply generation failed, storing placeholder")
	}

	recalledIDs := recalled.MessageIDs
	if recalledIDs == nil {
		recalledIDs = []uint{}
	}
	aiMsg := &Message{
		ConversationID: conv.ID,
		Sender:         SenderAI,
		Content:        reply.ValueOr(ReplyUnavailable),
		Timestamp:      s.now().UTC(),
		Metadata: map[string]any{
			MetadataRecalledMessageIDs: recalledIDs,
			MetadataReplyStatus:        replyStatus,
		},
	}
	if err := s.messages.Create(ctx, aiMsg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to store ai message")
	}

	s.storeEmbedding(ctx, aiMsg, log)

	return &AddMessageResult{
		UserMessage: *userMsg,
		AIMessage:   *aiMsg,
		ContextUsed: recalled.Text,
	}, nil
}

// End closes the conversation and stores a summary of the full history.
// Calling it again on an ended conversation recomputes and overwrites both
// the summary and the end time.
func (s *Service) End(ctx context.Context, id uint) (*Conversation, error) {
	ctx, span := tracer.Start(ctx, "conversation.End")
	defer span.End()

	conv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}

	result := s.summaries.GenerateSummary(ctx, conv.Messages)
	summary := result.ValueOr(SummaryFailedPrefix + string(result.Kind()))
	if !result.OK() {
		s.log.Warn().Err(result.Err()).
			Uint("conversation_id", conv.ID).
			Str("failure_kind", string(result.Kind())).
			Msg("summary generation failed")
	}

	endTime := s.now().UTC()
	if err := s.repo.MarkEnded(ctx, conv.ID, endTime, summary); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to end conversation")
	}

	conv.Status = StatusEnded
	conv.EndTime = &endTime
	conv.Summary = &summary
	return conv, nil
}

func (s *Service) storeEmbedding(ctx context.Context, msg *Message, log zerolog.Logger) {
	ctx, span := tracer.Start(ctx, "conversation.StoreEmbedding")
	defer span.End()
	span.SetAttributes(attribute.String("message.sender", string(msg.Sender)))

	vector := s.embedder.Embed(ctx, msg.Content)
	if len(vector) == 0 {
		log.Debug().Uint("message_id", msg.ID).Msg("embedding unavailable, message left pending")
		return
	}
	if err := s.messages.UpdateEmbedding(ctx, msg.ID, vector); err != nil {
		log.Error().Err(err).Uint("message_id", msg.ID).Msg("failed to store embedding")
		return
	}
	msg.Embedding = vector
}

func (s *Service) recall(ctx context.Context, query string, conversationID, excludeID uint) RecalledContext {
	ctx, span := tracer.Start(ctx, "conversation.Recall")
	defer span.End()

	recalled := s.recaller.RecallContext(ctx, query, conversationID, excludeID)
	span.SetAttributes(attribute.Int("recall.matches", len(recalled.MessageIDs)))
	return recalled
}
