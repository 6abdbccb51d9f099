package conversationrepo

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	domain "conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/infrastructure/database/entities"
	"conversiq-server/internal/utils/platformerrors"
)

// MessageRepository persists messages and runs pgvector similarity search.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository builds a message repository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

var _ domain.MessageRepository = (*MessageRepository)(nil)

// Create inserts a message. The timestamp is set by the caller and never changes.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	entity := entities.NewSchemaMessage(msg)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create message", err)
	}
	msg.ID = entity.ID
	return nil
}

// UpdateEmbedding stores the vector for one message.
func (r *MessageRepository) UpdateEmbedding(ctx context.Context, id uint, embedding []float32) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("id = ?", id).
		Update("embedding", pgvector.NewVector(embedding))
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to store embedding", result.Error)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"message not found", nil)
	}
	return nil
}

// ListByConversationID returns the conversation's messages in storage order.
func (r *MessageRepository) ListByConversationID(ctx context.Context, conversationID uint) ([]domain.Message, error) {
	var rows []entities.Message
	if err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list messages", err)
	}
	return toDomain(rows), nil
}

type matchRow struct {
	entities.Message
	Similarity float64
}

// Search ranks embedded messages by cosine distance to query (similarity = 1 - distance),
// breaking ties by ascending id. A nil conversationID searches every conversation.
func (r *MessageRepository) Search(ctx context.Context, query []float32, limit int, conversationID *uint) ([]domain.Match, error) {
	if len(query) == 0 || limit <= 0 {
		return []domain.Match{}, nil
	}

	vec := pgvector.NewVector(query)
	var rows []matchRow
	err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Select("id, conversation_id, sender, content, timestamp, metadata, 1 - (embedding <=> ?::vector) AS similarity", vec).
		Where("embedding IS NOT NULL").
		Scopes(inConversation(conversationID)).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "embedding <=> ?::vector ASC, id ASC",
			Vars:               []any{vec},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"vector search failed", err)
	}

	matches := make([]domain.Match, 0, len(rows))
	for i := range rows {
		matches = append(matches, domain.Match{
			Message:    *rows[i].Message.EtoD(),
			Similarity: rows[i].Similarity,
		})
	}
	return matches, nil
}

// ListPendingEmbedding returns up to limit messages without an embedding and with id > afterID.
func (r *MessageRepository) ListPendingEmbedding(ctx context.Context, afterID uint, limit int) ([]domain.Message, error) {
	var rows []entities.Message
	if err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("embedding IS NULL AND id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list pending messages", err)
	}
	return toDomain(rows), nil
}

// CountPendingEmbedding counts messages that still have no embedding.
func (r *MessageRepository) CountPendingEmbedding(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&entities.Message{}).
		Where("embedding IS NULL").
		Count(&count).Error; err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to count pending messages", err)
	}
	return count, nil
}

// inConversation restricts rows to one conversation when id is set.
func inConversation(id *uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if id == nil {
			return db
		}
		return db.Where("conversation_id = ?", *id)
	}
}

func toDomain(rows []entities.Message) []domain.Message {
	out := make([]domain.Message, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].EtoD())
	}
	return out
}
