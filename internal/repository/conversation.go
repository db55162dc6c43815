package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/models"
)

// ConversationRepository is the persistence boundary for conversations.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindByUserAndCompanion(ctx context.Context, userID, companionID uuid.UUID) (*models.Conversation, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Conversation, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a gorm-backed ConversationRepository.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create inserts the conversation. The compound unique index on
// (user_id, companion_id) makes a racing duplicate insert fail with
// gorm.ErrDuplicatedKey; the chat service re-reads the winner's row.
func (r *conversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *conversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) FindByUserAndCompanion(ctx context.Context, userID, companionID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		First(&conversation, "user_id = ? AND companion_id = ?", userID, companionID).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("last_message_at DESC").
		Offset(offset).Limit(limit).
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *conversationRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}
