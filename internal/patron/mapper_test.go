package patron

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velurestudio/velure-backend/pkg/enums"
)

func TestBuildCatalogRanksByTitle(t *testing.T) {
	t.Parallel()

	fetchedAt := time.Now()
	catalog, rankByTierID := BuildCatalog([]PlatformTier{
		{ID: "t-gold", Title: "Gold", AmountCents: 1500, Published: true},
		{ID: "t-silver", Title: "silver", AmountCents: 500, Published: true},
		{ID: "t-hidden", Title: "Diamond", AmountCents: 9000, Published: false},
	}, fetchedAt, 10*time.Minute)

	require.Len(t, catalog.Entries, 2)
	assert.Equal(t, enums.TierSilver, catalog.Entries[0].Rank)
	assert.Equal(t, enums.TierGold, catalog.Entries[1].Rank)
	assert.Equal(t, "5", catalog.Entries[0].MonthlyPrice.String())
	assert.Equal(t, fetchedAt, catalog.FetchedAt)

	assert.Equal(t, enums.TierGold, rankByTierID["t-gold"])
	assert.Equal(t, enums.TierSilver, rankByTierID["t-silver"])
	_, hidden := rankByTierID["t-hidden"]
	assert.False(t, hidden)
}

func TestBuildCatalogRanksByPriceWhenTitlesAreCustom(t *testing.T) {
	t.Parallel()

	catalog, rankByTierID := BuildCatalog([]PlatformTier{
		{ID: "t3", Title: "Inner Circle", AmountCents: 5000, Published: true},
		{ID: "t1", Title: "Supporter", AmountCents: 300, Published: true},
		{ID: "t2", Title: "Backstage", AmountCents: 1200, Published: true},
	}, time.Now(), time.Minute)

	require.Len(t, catalog.Entries, 3)
	assert.Equal(t, enums.TierSilver, rankByTierID["t1"])
	assert.Equal(t, enums.TierGold, rankByTierID["t2"])
	assert.Equal(t, enums.TierPlatinum, rankByTierID["t3"])
}

func TestMapMember(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	rankByTierID := map[string]enums.TierRank{"t-gold": enums.TierGold}

	tests := []struct {
		name     string
		member   PlatformMember
		wantOK   bool
		wantRank enums.TierRank
	}{
		{
			name: "active patron maps to tier rank",
			member: PlatformMember{
				ID: "m1", UserID: userID.String(), TierID: "t-gold",
				PledgeAmountCents: 1500, PatronStatus: "active_patron",
			},
			wantOK:   true,
			wantRank: enums.TierGold,
		},
		{
			name: "former patron falls back to bronze",
			member: PlatformMember{
				ID: "m2", UserID: userID.String(), TierID: "t-gold",
				PatronStatus: "former_patron",
			},
			wantOK:   true,
			wantRank: enums.TierBronze,
		},
		{
			name: "unknown tier id falls back to bronze",
			member: PlatformMember{
				ID: "m3", UserID: userID.String(), TierID: "t-unknown",
				PatronStatus: "active_patron",
			},
			wantOK:   true,
			wantRank: enums.TierBronze,
		},
		{
			name:   "bad user id is skipped",
			member: PlatformMember{ID: "m4", UserID: "not-a-uuid", PatronStatus: "active_patron"},
			wantOK: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			membership, ok := MapMember(tc.member, rankByTierID)
			require.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				return
			}
			assert.Equal(t, userID, membership.UserID)
			assert.Equal(t, tc.wantRank, membership.TierRank)
			assert.Equal(t, tc.member.ID, membership.PatronPlatformID)
			assert.Equal(t, tc.member.PledgeAmountCents, membership.PledgeCents)
		})
	}
}

func TestMapMemberPreservesCreatorFlag(t *testing.T) {
	t.Parallel()

	membership, ok := MapMember(PlatformMember{
		ID:        "m-creator",
		UserID:    uuid.NewString(),
		IsCreator: true,
	}, nil)
	require.True(t, ok)
	assert.True(t, membership.IsCreator)
	assert.Equal(t, enums.TierBronze, membership.TierRank)
}
