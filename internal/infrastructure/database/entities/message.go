package entities

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"conversiq-server/internal/domain/conversation"
)

// Message represents the database schema for messages.
// Embedding stays NULL until the embedding service has produced a vector.
type Message struct {
	ID             uint              `gorm:"primaryKey"`
	ConversationID uint              `gorm:"not null;index:idx_messages_conversation_id"`
	Sender         string            `gorm:"type:varchar(10);not null"`
	Content        string            `gorm:"type:text;not null"`
	Timestamp      time.Time         `gorm:"not null"`
	Embedding      *pgvector.Vector  `gorm:"type:vector(384)"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// NewSchemaMessage converts a domain message to its schema row.
func NewSchemaMessage(m *conversation.Message) *Message {
	entity := &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         string(m.Sender),
		Content:        m.Content,
		Timestamp:      m.Timestamp,
	}
	if len(m.Embedding) > 0 {
		vec := pgvector.NewVector(m.Embedding)
		entity.Embedding = &vec
	}
	if m.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(m.Metadata)
	}
	return entity
}

// EtoD converts the schema row to the domain message.
func (m *Message) EtoD() *conversation.Message {
	msg := &conversation.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         conversation.Sender(m.Sender),
		Content:        m.Content,
		Timestamp:      m.Timestamp,
	}
	if m.Embedding != nil {
		msg.Embedding = m.Embedding.Slice()
	}
	if m.Metadata != nil {
		msg.Metadata = map[string]any(m.Metadata)
	}
	return msg
}
