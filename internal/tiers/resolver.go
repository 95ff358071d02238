package tiers

import (
	"fmt"
	"time"

	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

// UserFact is the per-request membership truth supplied by the session
// collaborator. The resolver only reads it.
type UserFact struct {
	Rank      enums.TierRank
	IsCreator bool
}

// ResolveAccess decides whether a user may reach a resource gated at
// requiredRank. Creators always pass. Otherwise the user passes iff their
// rank sits at or above the requirement under the fixed tier ordering.
//
// The catalog is an injected snapshot: when it is empty or stale, any
// requirement above bronze denies regardless of the user's claimed rank,
// since the rank mapping can no longer be trusted.
func ResolveAccess(catalog Catalog, now time.Time, user UserFact, requiredRank enums.TierRank) error {
	if user.IsCreator {
		return nil
	}
	if !requiredRank.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown required tier %q", requiredRank))
	}
	if requiredRank == enums.TierBronze {
		return nil
	}
	if catalog.Stale(now) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("requires %s tier or higher", requiredRank))
	}
	if !user.Rank.IsValid() || !user.Rank.AtLeast(requiredRank) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("requires %s tier or higher", requiredRank))
	}
	return nil
}
