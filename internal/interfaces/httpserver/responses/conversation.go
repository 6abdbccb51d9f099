package responses

import (
	"time"

	"conversiq-server/internal/domain/conversation"
)

// MessageResponse is the public shape of a message.
type MessageResponse struct {
	ID           uint      `json:"id"`
	Conversation uint      `json:"conversation"`
	Sender       string    `json:"sender"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
}

// ConversationResponse is the public shape of a conversation with its messages.
type ConversationResponse struct {
	ID        uint              `json:"id"`
	Title     string            `json:"title"`
	Status    string            `json:"status"`
	StartTime time.Time         `json:"start_time"`
	EndTime   *time.Time        `json:"end_time"`
	Summary   *string           `json:"summary"`
	Messages  []MessageResponse `json:"messages"`
}

// AddMessageResponse is returned by the add_message action.
type AddMessageResponse struct {
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
	ContextUsed string `json:"context_used"`
}

// MatchResponse is a single similarity search hit.
type MatchResponse struct {
	ID           uint    `json:"id"`
	Conversation uint    `json:"conversation"`
	Sender       string  `json:"sender"`
	Content      string  `json:"content"`
	Similarity   float64 `json:"similarity"`
}

// RecallResponse is returned by the recall endpoint.
type RecallResponse struct {
	Query        string          `json:"query"`
	Conversation *uint           `json:"conversation"`
	Matches      []MatchResponse `json:"matches"`
}

func NewMessageResponse(m conversation.Message) MessageResponse {
	return MessageResponse{
		ID:           m.ID,
		Conversation: m.ConversationID,
		Sender:       string(m.Sender),
		Content:      m.Content,
		Timestamp:    m.Timestamp,
	}
}

func NewConversationResponse(c *conversation.Conversation) ConversationResponse {
	messages := make([]MessageResponse, 0, len(c.Messages))
	for _, m := range c.Messages {
		messages = append(messages, NewMessageResponse(m))
	}
	return ConversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		Status:    string(c.Status),
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Summary:   c.Summary,
		Messages:  messages,
	}
}

func NewConversationListResponse(convs []*conversation.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, NewConversationResponse(c))
	}
	return out
}

func NewAddMessageResponse(r *conversation.AddMessageResult) AddMessageResponse {
	return AddMessageResponse{
		UserMessage: r.UserMessage.Content,
		AIResponse:  r.AIMessage.Content,
		ContextUsed: r.ContextUsed,
	}
}

func NewMatchListResponse(matches []conversation.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchResponse{
			ID:           m.Message.ID,
			Conversation: m.Message.ConversationID,
			Sender:       string(m.Message.Sender),
			Content:      m.Message.Content,
			Similarity:   m.Similarity,
		})
	}
	return out
}
