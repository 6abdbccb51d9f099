package entities

import (
	"time"

	"conversiq-server/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint       `gorm:"primaryKey"`
	Title     string     `gorm:"type:varchar(255);not null"`
	Status    string     `gorm:"type:varchar(10);not null;default:'active'"`
	StartTime time.Time  `gorm:"not null;index:idx_conversations_start_time"`
	EndTime   *time.Time `gorm:"type:timestamptz"`
	Summary   *string    `gorm:"type:text"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// NewSchemaConversation converts a domain conversation to its schema row.
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		Status:    string(c.Status),
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Summary:   c.Summary,
	}
}

// EtoD converts the schema row, including any preloaded messages, to the domain type.
func (c *Conversation) EtoD() *conversation.Conversation {
	messages := make([]conversation.Message, 0, len(c.Messages))
	for i := range c.Messages {
		messages = append(messages, *c.Messages[i].EtoD())
	}
	return &conversation.Conversation{
		ID:        c.ID,
		Title:     c.Title,
		Status:    conversation.Status(c.Status),
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Summary:   c.Summary,
		Messages:  messages,
	}
}
