package models

import (
	"time"

	"github.com/google/uuid"
)

// Image captures metadata for a stored gallery image. ObjectKey points at the
// original object; WatermarkedObjectKey is present only when a pre-rendered
// static variant exists for the bronze tier.
type Image struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SetID                uuid.UUID `gorm:"column:set_id;type:uuid;not null;index"`
	ObjectKey            string    `gorm:"column:object_key;not null;unique"`
	WatermarkedObjectKey *string   `gorm:"column:watermarked_object_key"`
	FileName             string    `gorm:"column:file_name;not null"`
	MimeType             string    `gorm:"column:mime_type;not null"`
	Width                int       `gorm:"column:width;not null;default:0"`
	Height               int       `gorm:"column:height;not null;default:0"`
	ViewCount            int64     `gorm:"column:view_count;not null;default:0"`
	LikeCount            int64     `gorm:"column:like_count;not null;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
}
