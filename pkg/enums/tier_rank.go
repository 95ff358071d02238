package enums

import "fmt"

// TierRank is a discrete membership level. Ranks are ordered: bronze <
// silver < gold < platinum < diamond.
type TierRank string

const (
	TierBronze   TierRank = "bronze"
	TierSilver   TierRank = "silver"
	TierGold     TierRank = "gold"
	TierPlatinum TierRank = "platinum"
	TierDiamond  TierRank = "diamond"
)

var tierOrder = map[TierRank]int{
	TierBronze:   0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
	TierDiamond:  4,
}

var validTierRanks = []TierRank{
	TierBronze,
	TierSilver,
	TierGold,
	TierPlatinum,
	TierDiamond,
}

// String returns the literal string for the rank.
func (t TierRank) String() string {
	return string(t)
}

// IsValid reports whether the rank is known.
func (t TierRank) IsValid() bool {
	_, ok := tierOrder[t]
	return ok
}

// AtLeast reports whether t sits at or above other in the tier ordering.
// Unknown ranks compare as the lowest possible value.
func (t TierRank) AtLeast(other TierRank) bool {
	return tierOrder[t] >= tierOrder[other]
}

// ParseTierRank converts raw input into a TierRank.
func ParseTierRank(value string) (TierRank, error) {
	for _, candidate := range validTierRanks {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier rank %q", value)
}
