package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/pkg/enums"
)

// ForensicAccessLog is an append-only access record. Rows are never updated
// and are deleted only by a user-initiated data-erasure request.
type ForensicAccessLog struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	ImageID    uuid.UUID          `gorm:"column:image_id;type:uuid;not null;index"`
	SetID      uuid.UUID          `gorm:"column:set_id;type:uuid;not null"`
	Action     enums.AccessAction `gorm:"column:action;not null"`
	IPAddress  string             `gorm:"column:ip_address"`
	UserAgent  string             `gorm:"column:user_agent"`
	UserTier   enums.TierRank     `gorm:"column:user_tier;not null"`
	Referer    string             `gorm:"column:referer"`
	TrackingID string             `gorm:"column:tracking_id;index"`
	OccurredAt time.Time          `gorm:"column:occurred_at;not null;index"`
}
