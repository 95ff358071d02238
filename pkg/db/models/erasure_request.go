package models

import (
	"time"

	"github.com/google/uuid"
)

// ErasureRequest queues a user-initiated forensic data-erasure request.
// A cron job drains unprocessed rows.
type ErasureRequest struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	RequestedAt time.Time  `gorm:"column:requested_at;autoCreateTime"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
}
