package forensic

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
)

// Event is one access observation emitted by the delivery path. It travels
// over the forensic topic as JSON and lands in Postgres and BigQuery.
type Event struct {
	UserID     uuid.UUID          `json:"user_id"`
	ImageID    uuid.UUID          `json:"image_id"`
	SetID      uuid.UUID          `json:"set_id"`
	Action     enums.AccessAction `json:"action"`
	UserTier   enums.TierRank     `json:"user_tier"`
	IPAddress  string             `json:"ip_address,omitempty"`
	UserAgent  string             `json:"user_agent,omitempty"`
	Referer    string             `json:"referer,omitempty"`
	TrackingID string             `json:"tracking_id,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// Validate rejects events that cannot be attributed to a user and an image.
func (e Event) Validate() error {
	if e.UserID == uuid.Nil {
		return errors.New("forensic: event user id is required")
	}
	if e.ImageID == uuid.Nil {
		return errors.New("forensic: event image id is required")
	}
	if !e.Action.IsValid() {
		return errors.New("forensic: event action is invalid")
	}
	if e.OccurredAt.IsZero() {
		return errors.New("forensic: event timestamp is required")
	}
	return nil
}

// ToModel converts the wire event into the append-only Postgres row.
func (e Event) ToModel() models.ForensicAccessLog {
	return models.ForensicAccessLog{
		UserID:     e.UserID,
		ImageID:    e.ImageID,
		SetID:      e.SetID,
		Action:     e.Action,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		UserTier:   e.UserTier,
		Referer:    e.Referer,
		TrackingID: e.TrackingID,
		OccurredAt: e.OccurredAt,
	}
}
