package conversationrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	domain "conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/infrastructure/database/entities"
	"conversiq-server/internal/utils/platformerrors"
)

// ConversationRepository persists conversations.
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository builds a conversation repository.
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

var _ domain.Repository = (*ConversationRepository)(nil)

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// Create inserts the conversation record.
func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation", err)
	}
	conv.ID = entity.ID
	return nil
}

// FindByID fetches a conversation and its messages in storage order.
// Reads go to the primary so a conversation is visible right after it is written.
func (r *ConversationRepository) FindByID(ctx context.Context, id uint) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Preload("Messages", orderedMessages).
		First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(ctx, id)
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation", err)
	}
	return entity.EtoD(), nil
}

// List returns every conversation, newest start time first.
func (r *ConversationRepository) List(ctx context.Context) ([]*domain.Conversation, error) {
	var rows []entities.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Messages", orderedMessages).
		Order("start_time DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations", err)
	}

	out := make([]*domain.Conversation, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].EtoD())
	}
	return out, nil
}

// Update writes the mutable conversation columns.
func (r *ConversationRepository) Update(ctx context.Context, conv *domain.Conversation) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", conv.ID).
		Updates(map[string]any{
			"title":    conv.Title,
			"status":   string(conv.Status),
			"end_time": conv.EndTime,
			"summary":  conv.Summary,
		})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(ctx, conv.ID)
	}
	return nil
}

// MarkEnded stores the ended status, end time and summary in one transaction.
func (r *ConversationRepository) MarkEnded(ctx context.Context, id uint, endTime time.Time, summary string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Conversation{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":   string(domain.StatusEnded),
				"end_time": endTime,
				"summary":  summary,
			})
		if result.Error != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
				"failed to end conversation", result.Error)
		}
		if result.RowsAffected == 0 {
			return notFound(ctx, id)
		}
		return nil
	})
}

// Delete removes the conversation; messages go with it through ON DELETE CASCADE.
func (r *ConversationRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Conversation{}, id)
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to delete conversation", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(ctx, id)
	}
	return nil
}

func notFound(ctx context.Context, id uint) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("conversation not found: %d", id), nil)
}
