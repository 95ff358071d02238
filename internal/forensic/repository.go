package forensic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velurestudio/velure-backend/pkg/db/models"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

// Repository persists access logs. Rows are append-only: the only mutation
// ever applied is user-initiated erasure.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one access record.
func (r *Repository) Insert(ctx context.Context, row *models.ForensicAccessLog) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting access log failed")
	}
	return nil
}

// InvestigateFilter narrows an investigation to a time window.
type InvestigateFilter struct {
	Start *time.Time
	End   *time.Time
}

// InvestigateByImage returns the access history of one image in the order it
// happened, capped at limit rows.
func (r *Repository) InvestigateByImage(ctx context.Context, imageID uuid.UUID, filter InvestigateFilter, limit int) ([]models.ForensicAccessLog, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Where("image_id = ?", imageID)
	if filter.Start != nil {
		query = query.Where("occurred_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("occurred_at <= ?", *filter.End)
	}
	var rows []models.ForensicAccessLog
	err := query.
		Order("occurred_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "querying access logs failed")
	}
	return rows, nil
}

// FindByTrackingID resolves a leaked watermark tracking id back to the
// access records that carried it.
func (r *Repository) FindByTrackingID(ctx context.Context, trackingID string, limit int) ([]models.ForensicAccessLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.ForensicAccessLog
	err := r.db.WithContext(ctx).
		Where("tracking_id = ?", trackingID).
		Order("occurred_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "querying access logs by tracking id failed")
	}
	return rows, nil
}

// EraseUser deletes every access record attributed to the user and reports
// how many rows were removed.
func (r *Repository) EraseUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ForensicAccessLog{})
	if result.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "erasing access logs failed")
	}
	return result.RowsAffected, nil
}
