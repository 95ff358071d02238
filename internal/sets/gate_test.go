package sets

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/velurestudio/velure-backend/internal/tiers"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	"github.com/velurestudio/velure-backend/pkg/errors"
)

func testCatalog(now time.Time) tiers.Catalog {
	return tiers.Catalog{
		Entries: []tiers.Entry{
			{Rank: enums.TierBronze, Title: "Bronze", MonthlyPrice: decimal.NewFromInt(5)},
			{Rank: enums.TierSilver, Title: "Silver", MonthlyPrice: decimal.NewFromInt(10)},
			{Rank: enums.TierGold, Title: "Gold", MonthlyPrice: decimal.NewFromInt(25)},
		},
		FetchedAt: now,
		TTL:       10 * time.Minute,
	}
}

func gatedSet(publishedAt *time.Time, minRank enums.TierRank) *models.ImageSet {
	return &models.ImageSet{Title: "gated", PublishedAt: publishedAt, MinTierRank: minRank}
}

func TestAuthorizeUnpublishedBeforeTier(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	catalog := testCatalog(now)

	// unpublished set denies with the publish reason even when the tier is too low too
	err := Authorize(gatedSet(nil, enums.TierGold), tiers.UserFact{Rank: enums.TierBronze}, catalog, now)
	if err == nil {
		t.Fatal("expected denial")
	}
	if !strings.Contains(err.Error(), "published") {
		t.Fatalf("expected publish reason, got %q", err.Error())
	}
}

func TestAuthorizeTierDenialNamesRequiredTier(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	catalog := testCatalog(now)
	published := now.Add(-time.Hour)

	err := Authorize(gatedSet(&published, enums.TierGold), tiers.UserFact{Rank: enums.TierSilver}, catalog, now)
	if err == nil {
		t.Fatal("expected tier denial")
	}
	if errors.As(err).Code() != errors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", errors.As(err).Code())
	}
	if !strings.Contains(err.Error(), "gold") {
		t.Fatalf("expected denial to name the required tier, got %q", err.Error())
	}
}

func TestAuthorizeAllowsSufficientTier(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	catalog := testCatalog(now)
	published := now.Add(-time.Hour)

	if err := Authorize(gatedSet(&published, enums.TierSilver), tiers.UserFact{Rank: enums.TierGold}, catalog, now); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
}

func TestAuthorizeCreatorBypassesEverything(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// unpublished, diamond-gated, empty catalog: creator still passes
	err := Authorize(gatedSet(nil, enums.TierDiamond), tiers.UserFact{IsCreator: true}, tiers.Catalog{}, now)
	if err != nil {
		t.Fatalf("expected creator bypass, got %v", err)
	}
}

func TestAuthorizeEmptyRequiredRankDefaultsOpen(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	published := now.Add(-time.Minute)
	set := &models.ImageSet{Title: "legacy", PublishedAt: &published}

	if err := Authorize(set, tiers.UserFact{Rank: enums.TierBronze}, tiers.Catalog{}, now); err != nil {
		t.Fatalf("expected legacy set without rank to allow, got %v", err)
	}
}
