package urlcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/enums"
	"github.com/velurestudio/velure-backend/pkg/logger"
	redisclient "github.com/velurestudio/velure-backend/pkg/redis"
)

const digestLen = 16

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type keyer interface {
	SignedURLKey(digest string) string
}

// Cache is a short-TTL map from (object key, tier) to a previously issued
// signed URL. It is a pure performance layer: every outcome, including a
// backend failure, lets the caller proceed to re-sign.
type Cache struct {
	store    store
	keyer    keyer
	logg     *logger.Logger
	entryTTL time.Duration
	margin   time.Duration
}

// New builds the cache from the validated URL cache configuration.
func New(client *redisclient.Client, logg *logger.Logger, cfg config.URLCacheConfig) (*Cache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Cache{
		store:    client,
		keyer:    client,
		logg:     logg,
		entryTTL: cfg.EntryTTL,
		margin:   cfg.SafetyMargin,
	}, nil
}

// Get returns the cached URL for the (objectKey, tier) pair. The status
// distinguishes a plain miss from a backend error; both mean the caller
// should sign a fresh URL.
func (c *Cache) Get(ctx context.Context, objectKey string, tier enums.TierRank) (string, enums.CacheStatus) {
	url, err := c.store.Get(ctx, c.key(objectKey, tier))
	if err != nil {
		if redisclient.IsMiss(err) {
			return "", enums.CacheStatusMiss
		}
		c.logg.Warn(ctx, fmt.Sprintf("signed-url cache read failed: %v", err))
		return "", enums.CacheStatusError
	}
	return url, enums.CacheStatusHit
}

// Put stores the URL for the (objectKey, tier) pair. The entry TTL is clamped
// so it always undercuts the signed URL's own expiry by at least the safety
// margin; a URL too close to expiry is simply not cached.
func (c *Cache) Put(ctx context.Context, objectKey string, tier enums.TierRank, url string, urlTTL time.Duration) error {
	ttl := c.entryTTL
	if allowed := urlTTL - c.margin; ttl > allowed {
		ttl = allowed
	}
	if ttl <= 0 {
		return nil
	}
	if err := c.store.Set(ctx, c.key(objectKey, tier), url, ttl); err != nil {
		c.logg.Warn(ctx, fmt.Sprintf("signed-url cache write failed: %v", err))
		return err
	}
	return nil
}

func (c *Cache) key(objectKey string, tier enums.TierRank) string {
	return c.keyer.SignedURLKey(cacheDigest(objectKey, tier))
}

// cacheDigest incorporates the tier so the same logical image never serves
// another tier's URL: original vs. watermarked variants resolve to different
// physical objects per tier.
func cacheDigest(objectKey string, tier enums.TierRank) string {
	sum := sha256.Sum256([]byte(objectKey + "|" + string(tier)))
	return hex.EncodeToString(sum[:])[:digestLen]
}
