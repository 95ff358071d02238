package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/pkg/enums"
)

// WatermarkSetting is the single active watermark specification per creator.
// Mutating it does not invalidate previously rendered variants; stale static
// variants are regenerated by an explicit administrative batch action.
type WatermarkSetting struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID      uuid.UUID               `gorm:"column:creator_id;type:uuid;not null;unique"`
	Kind           enums.WatermarkKind     `gorm:"column:kind;not null"`
	Position       enums.WatermarkPosition `gorm:"column:position;not null"`
	TextTemplate   string                  `gorm:"column:text_template"`
	BadgeObjectKey *string                 `gorm:"column:badge_object_key"`
	Opacity        float64                 `gorm:"column:opacity;not null;default:0.5"`
	Scale          float64                 `gorm:"column:scale;not null;default:1"`
	OffsetX        float64                 `gorm:"column:offset_x;not null;default:0"`
	OffsetY        float64                 `gorm:"column:offset_y;not null;default:0"`
	Enabled        bool                    `gorm:"column:enabled;not null;default:true"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
