package sets

import (
	"time"

	"github.com/velurestudio/velure-backend/internal/tiers"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/visibility"
)

// Authorize runs the full gate for one set: the temporal publish check first,
// then the tier requirement. The two failure modes stay distinct so a denied
// member learns whether to wait or to upgrade.
func Authorize(set *models.ImageSet, user tiers.UserFact, catalog tiers.Catalog, now time.Time) error {
	if err := visibility.EnsureSetVisible(visibility.SetVisibilityInput{
		Set:       set,
		Now:       now,
		IsCreator: user.IsCreator,
	}); err != nil {
		return err
	}
	required := set.MinTierRank
	if required == "" {
		return nil
	}
	return tiers.ResolveAccess(catalog, now, user, required)
}
