package tiers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/velurestudio/velure-backend/pkg/enums"
)

type stubCatalogStore struct {
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	lastKey string
}

func newStubCatalogStore() *stubCatalogStore {
	return &stubCatalogStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubCatalogStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.lastKey = key
	switch v := value.(type) {
	case []byte:
		s.values[key] = string(v)
	case string:
		s.values[key] = v
	}
	s.ttls[key] = ttl
	return nil
}

func (s *stubCatalogStore) Get(_ context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

type stubKeyer struct{}

func (stubKeyer) TierCatalogKey(campaignID string) string {
	return "vl:tier_catalog:" + campaignID
}

func TestCatalogStoreSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	stub := newStubCatalogStore()
	store := &CatalogStore{store: stub, keyer: stubKeyer{}, campaignID: "camp-1"}

	catalog := Catalog{
		Entries: []Entry{
			{Rank: enums.TierSilver, Title: "Silver", MonthlyPrice: decimal.RequireFromString("9.99")},
		},
		FetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TTL:       10 * time.Minute,
	}

	if err := store.Save(context.Background(), catalog); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if stub.lastKey != "vl:tier_catalog:camp-1" {
		t.Fatalf("unexpected key %s", stub.lastKey)
	}
	if got := stub.ttls[stub.lastKey]; got != 20*time.Minute {
		t.Fatalf("expected redis TTL double the catalog TTL, got %s", got)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(loaded.Entries))
	}
	if loaded.Entries[0].Rank != enums.TierSilver {
		t.Fatalf("unexpected rank %s", loaded.Entries[0].Rank)
	}
	if !loaded.Entries[0].MonthlyPrice.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("unexpected price %s", loaded.Entries[0].MonthlyPrice)
	}
	if !loaded.FetchedAt.Equal(catalog.FetchedAt) {
		t.Fatalf("unexpected fetched_at %s", loaded.FetchedAt)
	}
}

func TestCatalogStoreLoadMissReturnsEmpty(t *testing.T) {
	t.Parallel()

	stub := newStubCatalogStore()
	store := &CatalogStore{store: stub, keyer: stubKeyer{}, campaignID: "camp-1"}

	catalog, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on miss: %v", err)
	}
	if !catalog.Empty() {
		t.Fatal("expected empty catalog on miss")
	}
}

func TestCatalogStoreLoadCorruptPayload(t *testing.T) {
	t.Parallel()

	stub := newStubCatalogStore()
	store := &CatalogStore{store: stub, keyer: stubKeyer{}, campaignID: "camp-1"}
	stub.values["vl:tier_catalog:camp-1"] = "{not-json"

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCatalogJSONShape(t *testing.T) {
	t.Parallel()

	catalog := Catalog{
		Entries:   []Entry{{Rank: enums.TierGold, Title: "Gold", MonthlyPrice: decimal.NewFromInt(25)}},
		FetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TTL:       time.Minute,
	}
	payload, err := json.Marshal(catalog)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Catalog
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.TTL != time.Minute {
		t.Fatalf("ttl did not survive round trip: %s", decoded.TTL)
	}
}
