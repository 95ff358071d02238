package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/pkg/enums"
)

// ImageSet groups images under a temporal visibility gate. Once PublishedAt
// is set it is never cleared; re-publishing does not hide content.
type ImageSet struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID     uuid.UUID      `gorm:"column:creator_id;type:uuid;not null;index"`
	Title         string         `gorm:"column:title;not null"`
	MinTierRank   enums.TierRank `gorm:"column:min_tier_rank;not null;default:bronze"`
	PublishedAt   *time.Time     `gorm:"column:published_at"`
	ScheduledTime *time.Time     `gorm:"column:scheduled_time"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
}
