package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/pkg/enums"
)

// Membership is the locally synced patron record. The session collaborator
// reads it to assemble the per-request user tier fact; the core never writes
// it outside the patron sync path.
type Membership struct {
	UserID           uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey"`
	TierRank         enums.TierRank `gorm:"column:tier_rank;not null"`
	IsCreator        bool           `gorm:"column:is_creator;not null;default:false"`
	PatronPlatformID string         `gorm:"column:patron_platform_id;index"`
	PledgeCents      int64          `gorm:"column:pledge_cents;not null;default:0"`
	SyncedAt         time.Time      `gorm:"column:synced_at;autoUpdateTime"`
}
