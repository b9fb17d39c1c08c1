package websearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/askweb/tools/websearch/models"
)

// CachedSearcher is a read-through redis cache in front of a Searcher.
// Cache failures are invisible to callers: a miss or a redis error falls
// through to the provider, and writes are best-effort.
type CachedSearcher struct {
	Inner Searcher
	RDB   *redis.Client
	TTL   time.Duration
}

// NewCached wraps inner with a redis cache. A nil client returns inner
// unchanged so wiring stays unconditional.
func NewCached(inner Searcher, rdb *redis.Client, ttl time.Duration) Searcher {
	if rdb == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSearcher{Inner: inner, RDB: rdb, TTL: ttl}
}

func (c *CachedSearcher) Search(ctx context.Context, query string, k int) ([]models.Result, error) {
	key := cacheKey(query, k)
	if blob, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		var cached []models.Result
		if err := json.Unmarshal(blob, &cached); err == nil {
			return cached, nil
		}
	}

	results, err := c.Inner.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if blob, err := json.Marshal(results); err == nil {
		_ = c.RDB.Set(ctx, key, blob, c.TTL).Err()
	}
	return results, nil
}

func cacheKey(query string, k int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", k, query)))
	return "websearch:" + hex.EncodeToString(sum[:16])
}
