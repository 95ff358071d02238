package tiers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/velurestudio/velure-backend/pkg/enums"
)

// Entry describes one purchasable tier on the subscription platform.
type Entry struct {
	Rank         enums.TierRank  `json:"rank"`
	Title        string          `json:"title"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
}

// Catalog is an explicit snapshot of the platform tier list. It is refreshed
// by the patron sync job and passed into access decisions as a value; the
// resolver never fetches it as a side effect.
type Catalog struct {
	Entries   []Entry       `json:"entries"`
	FetchedAt time.Time     `json:"fetched_at"`
	TTL       time.Duration `json:"ttl"`
}

// Empty reports whether the catalog carries no tier entries.
func (c Catalog) Empty() bool {
	return len(c.Entries) == 0
}

// Stale reports whether the snapshot has outlived its TTL. An empty catalog
// is always stale.
func (c Catalog) Stale(now time.Time) bool {
	if c.Empty() {
		return true
	}
	if c.TTL <= 0 {
		return false
	}
	return now.After(c.FetchedAt.Add(c.TTL))
}

// HasRank reports whether the catalog lists the given rank.
func (c Catalog) HasRank(rank enums.TierRank) bool {
	for _, entry := range c.Entries {
		if entry.Rank == rank {
			return true
		}
	}
	return false
}
