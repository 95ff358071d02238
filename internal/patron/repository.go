package patron

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

// Repository persists synced memberships.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUser returns the synced membership for a user. A user the sync has
// never seen resolves to NOT_FOUND; callers treat that as bronze.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "membership not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading membership failed")
	}
	return &membership, nil
}

// UpsertBatch writes the synced rows, replacing tier and pledge data for
// users the platform still reports.
func (r *Repository) UpsertBatch(ctx context.Context, memberships []models.Membership, syncedAt time.Time) error {
	if len(memberships) == 0 {
		return nil
	}
	for i := range memberships {
		memberships[i].SyncedAt = syncedAt
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tier_rank", "is_creator", "patron_platform_id", "pledge_cents", "synced_at",
			}),
		}).
		Create(&memberships).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upserting memberships failed")
	}
	return nil
}

// DowngradeStale resets to bronze every non-creator row the latest sync did
// not touch. Patrons who cancel disappear from the platform listing, so a
// stale synced_at is the cancellation signal.
func (r *Repository) DowngradeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("synced_at < ? AND is_creator = false AND tier_rank <> ?", cutoff, enums.TierBronze).
		Update("tier_rank", enums.TierBronze)
	if result.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "downgrading stale memberships failed")
	}
	return result.RowsAffected, nil
}

// DeleteByUser removes a membership row, used by the erasure pipeline.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Membership{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting membership failed")
	}
	return nil
}
