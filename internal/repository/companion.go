package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/models"
)

// CompanionRepository is the persistence boundary for companions.
type CompanionRepository interface {
	Create(ctx context.Context, companion *models.Companion) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Companion, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Companion, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ActiveNameExists(ctx context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, companion *models.Companion) error
}

type companionRepository struct {
	db *gorm.DB
}

// NewCompanionRepository creates a gorm-backed CompanionRepository.
func NewCompanionRepository(db *gorm.DB) CompanionRepository {
	return &companionRepository{db: db}
}

func (r *companionRepository) Create(ctx context.Context, companion *models.Companion) error {
	return r.db.WithContext(ctx).Create(companion).Error
}

func (r *companionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Companion, error) {
	var companion models.Companion
	if err := r.db.WithContext(ctx).First(&companion, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &companion, nil
}

func (r *companionRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Companion, error) {
	var companions []models.Companion
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&companions).Error
	if err != nil {
		return nil, err
	}
	return companions, nil
}

func (r *companionRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Companion{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// ActiveNameExists checks name uniqueness among the owner's active
// companions. Soft-deleted companions do not block name reuse, so the
// check lives here instead of a unique index.
func (r *companionRepository) ActiveNameExists(ctx context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Companion{}).
		Where("user_id = ? AND name = ? AND is_active = ?", userID, name, true)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var companion models.Companion
	err := q.First(&companion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *companionRepository) Update(ctx context.Context, companion *models.Companion) error {
	return r.db.WithContext(ctx).Save(companion).Error
}
