package sets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velurestudio/velure-backend/pkg/db/models"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

// Repository persists image sets.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads the set without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ImageSet, error) {
	var set models.ImageSet
	if err := r.db.WithContext(ctx).First(&set, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "image set not found")
		}
		return nil, err
	}
	return &set, nil
}

// ListByCreator returns all sets owned by the creator, newest first.
func (r *Repository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.ImageSet, error) {
	var sets []models.ImageSet
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&sets).Error
	return sets, err
}

// Create stores a new set.
func (r *Repository) Create(ctx context.Context, set *models.ImageSet) (*models.ImageSet, error) {
	if err := r.db.WithContext(ctx).Create(set).Error; err != nil {
		return nil, err
	}
	return set, nil
}

// PublishDueSets flips published_at for every set whose scheduled time has
// arrived. The publish timestamp is the scheduled time itself, not now, so
// the temporal gate stays consistent with what members were promised.
// Returns the number of sets published.
func (r *Repository) PublishDueSets(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ImageSet{}).
		Where("published_at IS NULL AND scheduled_time IS NOT NULL AND scheduled_time <= ?", now).
		Update("published_at", gorm.Expr("scheduled_time"))
	return result.RowsAffected, result.Error
}

// UpdateSchedule changes the scheduled publish time for an unpublished set.
// Published sets are immutable on the temporal axis: published_at is never
// cleared or moved once set.
func (r *Repository) UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledTime *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.ImageSet{}).
		Where("id = ? AND published_at IS NULL", id).
		Update("scheduled_time", scheduledTime)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "set is already published")
	}
	return nil
}
