package images

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velurestudio/velure-backend/pkg/db/models"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

// Repository persists image records.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads the image record.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	var img models.Image
	if err := r.db.WithContext(ctx).First(&img, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return nil, err
	}
	return &img, nil
}

// ListBySet returns the images in a set, oldest first.
func (r *Repository) ListBySet(ctx context.Context, setID uuid.UUID) ([]models.Image, error) {
	var imgs []models.Image
	err := r.db.WithContext(ctx).
		Where("set_id = ?", setID).
		Order("created_at ASC").
		Find(&imgs).Error
	return imgs, err
}

// ListByCreator returns every image in the creator's sets.
func (r *Repository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Image, error) {
	var imgs []models.Image
	err := r.db.WithContext(ctx).
		Joins("JOIN image_sets ON image_sets.id = images.set_id").
		Where("image_sets.creator_id = ?", creatorID).
		Order("images.created_at ASC").
		Find(&imgs).Error
	return imgs, err
}

// Create stores a new image record.
func (r *Repository) Create(ctx context.Context, img *models.Image) (*models.Image, error) {
	if err := r.db.WithContext(ctx).Create(img).Error; err != nil {
		return nil, err
	}
	return img, nil
}

// IncrementViewCount bumps the view counter in a single UPDATE expression so
// concurrent requests never lose updates.
func (r *Repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}

// IncrementLikeCount bumps the like counter atomically.
func (r *Repository) IncrementLikeCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ?", id).
		Update("like_count", gorm.Expr("like_count + 1")).Error
}

// DecrementLikeCount lowers the like counter atomically, never below zero.
func (r *Repository) DecrementLikeCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ? AND like_count > 0", id).
		Update("like_count", gorm.Expr("like_count - 1")).Error
}

// SetWatermarkedKey records the object key of a freshly rendered static variant.
func (r *Repository) SetWatermarkedKey(ctx context.Context, id uuid.UUID, key string) error {
	return r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ?", id).
		Update("watermarked_object_key", key).Error
}
