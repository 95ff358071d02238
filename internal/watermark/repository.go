package watermark

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velurestudio/velure-backend/pkg/db/models"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

// DefaultTextTemplate is used when a creator has not configured one. The
// {user} placeholder is filled per request for dynamic marks.
const DefaultTextTemplate = "velure · {user}"

// Repository persists per-creator watermark settings.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByCreator loads the creator's single active setting.
func (r *Repository) FindByCreator(ctx context.Context, creatorID uuid.UUID) (*models.WatermarkSetting, error) {
	var setting models.WatermarkSetting
	if err := r.db.WithContext(ctx).First(&setting, "creator_id = ?", creatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "watermark settings not found")
		}
		return nil, err
	}
	return &setting, nil
}

// Upsert stores the creator's setting, replacing any previous one. Mutating
// settings never invalidates already-rendered variants; stale static variants
// are refreshed by the explicit regeneration action.
func (r *Repository) Upsert(ctx context.Context, setting *models.WatermarkSetting) (*models.WatermarkSetting, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "creator_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"kind", "position", "text_template", "badge_object_key",
			"opacity", "scale", "offset_x", "offset_y", "enabled", "updated_at",
		}),
	}).Create(setting).Error
	if err != nil {
		return nil, err
	}
	return setting, nil
}

// SpecFromSetting converts a stored row into a normalized engine spec.
func SpecFromSetting(setting *models.WatermarkSetting) Spec {
	if setting == nil {
		return Spec{}
	}
	return Spec{
		Kind:         setting.Kind,
		Position:     setting.Position,
		TextTemplate: setting.TextTemplate,
		Opacity:      setting.Opacity,
		Scale:        setting.Scale,
		OffsetX:      setting.OffsetX,
		OffsetY:      setting.OffsetY,
		Enabled:      setting.Enabled,
	}.Normalize()
}

// FillTemplate substitutes the {user} placeholder with the given identity.
func FillTemplate(template, identity string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultTextTemplate
	}
	return strings.ReplaceAll(template, "{user}", identity)
}
