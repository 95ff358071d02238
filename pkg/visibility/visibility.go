package visibility

import (
	"time"

	"github.com/velurestudio/velure-backend/pkg/db/models"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

// SetVisibilityInput drives the shared gate checks for member-facing queries.
type SetVisibilityInput struct {
	Set       *models.ImageSet
	Now       time.Time
	IsCreator bool
}

// EnsureSetVisible enforces the temporal gate so unpublished sets never leak
// through member queries. A set is visible iff published_at is set and not in
// the future, or scheduled_time has already passed even when the publish
// sweep has not flipped published_at yet. Creators bypass the gate for their
// own preview flows.
func EnsureSetVisible(input SetVisibilityInput) error {
	if input.Set == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "image set not found")
	}
	if input.IsCreator {
		return nil
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	if input.Set.PublishedAt != nil && !input.Set.PublishedAt.After(now) {
		return nil
	}
	if input.Set.ScheduledTime != nil && !input.Set.ScheduledTime.After(now) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "content is not yet published")
}
