package conversation

import (
	"context"
	"time"
)

// Repository exposes CRUD operations for conversations.
type Repository interface {
	Create(ctx context.Context, conversation *Conversation) error
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	List(ctx context.Context) ([]*Conversation, error)
	Update(ctx context.Context, conversation *Conversation) error
	// MarkEnded persists status, end time and summary in one transaction.
	MarkEnded(ctx context.Context, id uint, endTime time.Time, summary string) error
	Delete(ctx context.Context, id uint) error
}

// MessageRepository persists messages and their embeddings.
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	UpdateEmbedding(ctx context.Context, id uint, embedding []float32) error
	ListByConversationID(ctx context.Context, conversationID uint) ([]Message, error)
	// Search ranks embedded messages by cosine distance, ties by ascending id.
	Search(ctx context.Context, query []float32, limit int, conversationID *uint) ([]Match, error)
	ListPendingEmbedding(ctx context.Context, afterID uint, limit int) ([]Message, error)
	CountPendingEmbedding(ctx context.Context) (int64, error)
}
