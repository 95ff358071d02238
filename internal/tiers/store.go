package tiers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisclient "github.com/velurestudio/velure-backend/pkg/redis"
)

type catalogStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type catalogKeyer interface {
	TierCatalogKey(campaignID string) string
}

// CatalogStore persists tier catalog snapshots in Redis so every API instance
// shares one view of the platform tier list.
type CatalogStore struct {
	store      catalogStore
	keyer      catalogKeyer
	campaignID string
}

// NewCatalogStore builds a Redis-backed catalog store.
func NewCatalogStore(client *redisclient.Client, campaignID string) (*CatalogStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if campaignID == "" {
		return nil, fmt.Errorf("campaign id is required")
	}
	return &CatalogStore{store: client, keyer: client, campaignID: campaignID}, nil
}

// Save stores the snapshot. The Redis TTL doubles the catalog's own TTL so a
// slightly stale snapshot survives long enough to be recognized as stale
// rather than silently vanishing into an empty catalog.
func (s *CatalogStore) Save(ctx context.Context, catalog Catalog) error {
	payload, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("encoding tier catalog: %w", err)
	}
	ttl := catalog.TTL * 2
	if ttl <= 0 {
		ttl = 0
	}
	return s.store.Set(ctx, s.keyer.TierCatalogKey(s.campaignID), payload, ttl)
}

// Load returns the stored snapshot. A missing key or a backend failure yields
// an empty catalog, which downstream access decisions treat conservatively.
func (s *CatalogStore) Load(ctx context.Context) (Catalog, error) {
	raw, err := s.store.Get(ctx, s.keyer.TierCatalogKey(s.campaignID))
	if err != nil {
		if redisclient.IsMiss(err) {
			return Catalog{}, nil
		}
		return Catalog{}, fmt.Errorf("loading tier catalog: %w", err)
	}
	var catalog Catalog
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		return Catalog{}, fmt.Errorf("decoding tier catalog: %w", err)
	}
	return catalog, nil
}
