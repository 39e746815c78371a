package engine

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// cacheKeyPrefix namespaces every key this process writes, so Clear can find them in Redis.
const cacheKeyPrefix = "gallery:"

const defaultCacheMaxEntries = 256

// Cache hit/miss counters.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

// RangeCache is a 2-tier TTL cache for loaded sheet ranges:
// L1 bounded in-memory LRU, optional L2 Redis that survives restarts.
// Entries carry their insertion time and are checked for expiry on read.
type RangeCache struct {
	l1  *lru.Cache[string, cacheEntry]
	rdb *redis.Client // nil if Redis unavailable
	ttl time.Duration
	now func() time.Time
}

type cacheEntry struct {
	data     []byte
	storedAt time.Time
}

// l2Entry is the Redis representation; storedAt travels with the data so an
// L2 hit does not extend the entry's lifetime.
type l2Entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// CacheConfig configures NewRangeCache.
type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
	RedisURL   string // empty disables L2
}

// NewRangeCache builds the cache. A bad or unreachable Redis URL only disables L2.
func NewRangeCache(cc CacheConfig) *RangeCache {
	if cc.TTL <= 0 {
		cc.TTL = DefaultCacheTTL
	}
	if cc.MaxEntries <= 0 {
		cc.MaxEntries = defaultCacheMaxEntries
	}
	l1, err := lru.New[string, cacheEntry](cc.MaxEntries)
	if err != nil {
		// lru.New only fails on a non-positive size, guarded above.
		panic(fmt.Sprintf("cache: lru init: %v", err))
	}
	c := &RangeCache{l1: l1, ttl: cc.TTL, now: time.Now}

	if cc.RedisURL != "" {
		opts, err := redis.ParseURL(cc.RedisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	slog.Info("cache: initialized",
		slog.Duration("ttl", c.ttl),
		slog.Bool("redis", c.rdb != nil),
		slog.Int("max_entries", cc.MaxEntries),
	)
	return c
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("%s%x", cacheKeyPrefix, hash[:12])
}

// TTL reports the configured time-to-live.
func (c *RangeCache) TTL() time.Duration { return c.ttl }

// Get tries L1, then L2. On L2 hit, populates L1 with the original insertion time.
func (c *RangeCache) Get(ctx context.Context, key string) ([]byte, bool) {
	now := c.now()

	if entry, ok := c.l1.Get(key); ok {
		if now.Sub(entry.storedAt) < c.ttl {
			slog.Debug("cache: L1 hit", slog.String("key", key))
			cacheHits.Add(1)
			return entry.data, true
		}
		c.l1.Remove(key) // expired
	}

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var e l2Entry
			if json.Unmarshal(raw, &e) == nil && now.Sub(e.StoredAt) < c.ttl {
				slog.Debug("cache: L2 hit", slog.String("key", key))
				cacheHits.Add(1)
				c.l1.Add(key, cacheEntry{data: e.Data, storedAt: e.StoredAt})
				return e.Data, true
			}
		} else if err != redis.Nil {
			slog.Debug("cache: L2 get failed", slog.Any("error", err))
		}
	}

	cacheMisses.Add(1)
	return nil, false
}

// Set stores data in both tiers, stamped with the current time.
func (c *RangeCache) Set(ctx context.Context, key string, data []byte) {
	storedAt := c.now()
	c.l1.Add(key, cacheEntry{data: data, storedAt: storedAt})

	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(l2Entry{StoredAt: storedAt, Data: data})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		slog.Debug("cache: L2 set failed", slog.Any("error", err))
	}
}

// Clear drops every entry regardless of remaining TTL.
func (c *RangeCache) Clear(ctx context.Context) {
	n := c.l1.Len()
	c.l1.Purge()

	removed := 0
	if c.rdb != nil {
		iter := c.rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			slog.Warn("cache: L2 scan failed", slog.Any("error", err))
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("cache: L2 delete failed", slog.Any("error", err))
			} else {
				removed = len(keys)
			}
		}
	}
	slog.Info("cache: cleared", slog.Int("l1", n), slog.Int("l2", removed))
}

// Len returns the number of L1 entries, expired ones included.
func (c *RangeCache) Len() int { return c.l1.Len() }

// Close releases the Redis connection, if any.
func (c *RangeCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}
