package urlcache

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/velurestudio/velure-backend/pkg/enums"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

type stubStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newStubStore() *stubStore {
	return &stubStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	switch v := value.(type) {
	case string:
		s.values[key] = v
	case []byte:
		s.values[key] = string(v)
	}
	s.ttls[key] = ttl
	return nil
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
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

func (stubKeyer) SignedURLKey(digest string) string {
	return "vl:signed_url:" + digest
}

func testCache(store *stubStore, entryTTL, margin time.Duration) *Cache {
	logg := logger.New(logger.Options{ServiceName: "urlcache-test"})
	return &Cache{store: store, keyer: stubKeyer{}, logg: logg, entryTTL: entryTTL, margin: margin}
}

func TestCachePutGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	cache := testCache(store, 4*time.Minute, time.Minute)
	ctx := context.Background()

	if err := cache.Put(ctx, "media/set1/img.png", enums.TierBronze, "https://signed/a", 15*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	url, status := cache.Get(ctx, "media/set1/img.png", enums.TierBronze)
	if status != enums.CacheStatusHit {
		t.Fatalf("expected hit, got %s", status)
	}
	if url != "https://signed/a" {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestCacheTierIsolation(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	cache := testCache(store, 4*time.Minute, time.Minute)
	ctx := context.Background()

	if err := cache.Put(ctx, "media/set1/img.png", enums.TierBronze, "https://signed/bronze", 15*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// same object key, different tier must miss
	if _, status := cache.Get(ctx, "media/set1/img.png", enums.TierGold); status != enums.CacheStatusMiss {
		t.Fatalf("expected miss for other tier, got %s", status)
	}
}

func TestCacheMissVsError(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	cache := testCache(store, 4*time.Minute, time.Minute)
	ctx := context.Background()

	if _, status := cache.Get(ctx, "media/absent.png", enums.TierSilver); status != enums.CacheStatusMiss {
		t.Fatalf("expected miss, got %s", status)
	}

	store.getErr = errors.New("connection refused")
	if _, status := cache.Get(ctx, "media/absent.png", enums.TierSilver); status != enums.CacheStatusError {
		t.Fatalf("expected error status, got %s", status)
	}
}

func TestCachePutClampsTTLToURLExpiry(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	cache := testCache(store, 10*time.Minute, time.Minute)
	ctx := context.Background()

	// URL lives 5m; entry must be clamped to 4m (margin 1m)
	if err := cache.Put(ctx, "media/clamp.png", enums.TierBronze, "https://signed/c", 5*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	key := stubKeyer{}.SignedURLKey(cacheDigest("media/clamp.png", enums.TierBronze))
	if got := store.ttls[key]; got != 4*time.Minute {
		t.Fatalf("expected clamped TTL 4m, got %s", got)
	}
}

func TestCachePutSkipsNearlyExpiredURL(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	cache := testCache(store, 4*time.Minute, time.Minute)
	ctx := context.Background()

	// URL expiry inside the safety margin: do not cache at all
	if err := cache.Put(ctx, "media/short.png", enums.TierBronze, "https://signed/s", 30*time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(store.values) != 0 {
		t.Fatal("expected nothing cached for a nearly expired URL")
	}
}

func TestCachePutSurfacesBackendError(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.setErr = errors.New("write failed")
	cache := testCache(store, 4*time.Minute, time.Minute)

	if err := cache.Put(context.Background(), "media/e.png", enums.TierBronze, "https://signed/e", 15*time.Minute); err == nil {
		t.Fatal("expected backend error")
	}
}

func TestCacheDigestStableAndTierSensitive(t *testing.T) {
	t.Parallel()

	a := cacheDigest("media/x.png", enums.TierBronze)
	b := cacheDigest("media/x.png", enums.TierBronze)
	if a != b {
		t.Fatal("digest must be deterministic")
	}
	if len(a) != digestLen {
		t.Fatalf("expected %d hex chars, got %d", digestLen, len(a))
	}
	if a == cacheDigest("media/x.png", enums.TierSilver) {
		t.Fatal("digest must differ across tiers")
	}
}
