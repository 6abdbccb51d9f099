package conversation

import (
	"strings"
	"time"
)

// ===============================================
// Conversation Types
// ===============================================

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Valid reports whether s is a known conversation status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusEnded
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

const MaxTitleLength = 255

// Metadata keys stored on AI messages.
const (
	MetadataRecalledMessageIDs = "recalled_message_ids"
	MetadataReplyStatus        = "reply_status"
	ReplyStatusOK              = "ok"
)

// Conversation is a chat thread between the user and the assistant.
type Conversation struct {
	ID        uint
	Title     string
	Status    Status
	StartTime time.Time
	EndTime   *time.Time
	Summary   *string
	Messages  []Message
}

// IsEnded reports whether the conversation has been closed.
func (c *Conversation) IsEnded() bool {
	return c.Status == StatusEnded
}

// Message is a single chat turn. Embedding is nil while the message is pending-embedding.
type Message struct {
	ID             uint
	ConversationID uint
	Sender         Sender
	Content        string
	Timestamp      time.Time
	Embedding      []float32
	Metadata       map[string]any
}

// HasEmbedding reports whether a vector has been stored for the message.
func (m *Message) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// TranscriptLine renders the message as "sender: content".
func (m *Message) TranscriptLine() string {
	return string(m.Sender) + ": " + m.Content
}

// Match is a message ranked by cosine similarity to a query vector.
type Match struct {
	Message    Message
	Similarity float64
}

// Update carries the mutable conversation fields of a PATCH request.
type Update struct {
	Title  *string
	Status *Status
}

// RecalledContext is the assembled recall block plus the messages it was built from.
type RecalledContext struct {
	Text       string
	MessageIDs []uint
}

// AddMessageResult is returned by AddMessage.
type AddMessageResult struct {
	UserMessage Message
	AIMessage   Message
	ContextUsed string
}

// NormalizeTitle trims the title and enforces the length limit.
func NormalizeTitle(title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" || len([]rune(title)) > MaxTitleLength {
		return "", false
	}
	return title, true
}
