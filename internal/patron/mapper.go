package patron

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velurestudio/velure-backend/internal/tiers"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
)

// rankLadder assigns ranks by price order when tier titles do not match a
// known rank name. The cheapest published tier becomes silver: bronze is the
// implicit free level and never appears in the platform catalog.
var rankLadder = []enums.TierRank{
	enums.TierSilver,
	enums.TierGold,
	enums.TierPlatinum,
	enums.TierDiamond,
}

// BuildCatalog converts the platform tier list into a catalog snapshot.
// Unpublished tiers are dropped. Rank assignment prefers a title that names a
// rank directly; otherwise tiers are ranked by ascending price.
func BuildCatalog(platformTiers []PlatformTier, fetchedAt time.Time, ttl time.Duration) (tiers.Catalog, map[string]enums.TierRank) {
	published := make([]PlatformTier, 0, len(platformTiers))
	for _, t := range platformTiers {
		if t.Published {
			published = append(published, t)
		}
	}
	sort.SliceStable(published, func(i, j int) bool {
		return published[i].AmountCents < published[j].AmountCents
	})

	entries := make([]tiers.Entry, 0, len(published))
	rankByTierID := make(map[string]enums.TierRank, len(published))
	for i, t := range published {
		rank := rankForTier(t, i)
		entries = append(entries, tiers.Entry{
			Rank:         rank,
			Title:        t.Title,
			MonthlyPrice: decimal.NewFromInt(t.AmountCents).Div(decimal.NewFromInt(100)),
		})
		rankByTierID[t.ID] = rank
	}

	return tiers.Catalog{
		Entries:   entries,
		FetchedAt: fetchedAt,
		TTL:       ttl,
	}, rankByTierID
}

func rankForTier(t PlatformTier, priceIndex int) enums.TierRank {
	if rank, err := enums.ParseTierRank(strings.ToLower(strings.TrimSpace(t.Title))); err == nil {
		return rank
	}
	if priceIndex < len(rankLadder) {
		return rankLadder[priceIndex]
	}
	return rankLadder[len(rankLadder)-1]
}

// MapMember converts one pledge record into a local membership row. It
// returns false when the record cannot be mapped: an unparseable user id or a
// patron status that carries no entitlement.
func MapMember(member PlatformMember, rankByTierID map[string]enums.TierRank) (models.Membership, bool) {
	userID, err := uuid.Parse(strings.TrimSpace(member.UserID))
	if err != nil || userID == uuid.Nil {
		return models.Membership{}, false
	}

	rank := enums.TierBronze
	if member.PatronStatus == "active_patron" {
		if mapped, ok := rankByTierID[member.TierID]; ok {
			rank = mapped
		}
	}

	return models.Membership{
		UserID:           userID,
		TierRank:         rank,
		IsCreator:        member.IsCreator,
		PatronPlatformID: member.ID,
		PledgeCents:      member.PledgeAmountCents,
	}, true
}
