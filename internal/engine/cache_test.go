package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// fakeClock lets tests move the cache's notion of "now".
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T, ttl time.Duration, maxEntries int) (*RangeCache, *fakeClock) {
	t.Helper()
	c := NewRangeCache(CacheConfig{TTL: ttl, MaxEntries: maxEntries})
	clk := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clk.now
	return c, clk
}

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("range", "ABC123", "Sheet1")
		k2 := CacheKey("range", "ABC123", "Sheet1")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("range", "ABC123", "Sheet1")
		k2 := CacheKey("range", "ABC123", "Sheet2")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:len(cacheKeyPrefix)] != cacheKeyPrefix {
			t.Errorf("expected %s prefix, got %q", cacheKeyPrefix, k)
		}
	})
}

func TestCacheGetSet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 100)
	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected cache miss on empty cache")
	}

	c.Set(ctx, key, []byte(`{"header":["URL"]}`))

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if string(got) != `{"header":["URL"]}` {
		t.Errorf("got %q", got)
	}
}

func TestCacheExpiration(t *testing.T) {
	c, clk := newTestCache(t, 5*time.Minute, 100)
	ctx := context.Background()
	key := CacheKey("test", "expiry")

	c.Set(ctx, key, []byte("temp"))

	clk.advance(5*time.Minute - time.Second)
	if _, ok := c.Get(ctx, key); !ok {
		t.Fatal("expected hit just before TTL")
	}

	clk.advance(time.Second)
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected cache miss at TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on read, len=%d", c.Len())
	}
}

func TestCacheExpirationIsPerKey(t *testing.T) {
	c, clk := newTestCache(t, 5*time.Minute, 100)
	ctx := context.Background()
	a := CacheKey("range", "A", "Sheet1")
	b := CacheKey("range", "B", "Sheet1")

	c.Set(ctx, a, []byte("a"))
	clk.advance(3 * time.Minute)
	c.Set(ctx, b, []byte("b"))
	clk.advance(3 * time.Minute)

	if _, ok := c.Get(ctx, a); ok {
		t.Error("a should have expired")
	}
	if _, ok := c.Get(ctx, b); !ok {
		t.Error("b should still be fresh")
	}
}

func TestCacheClear(t *testing.T) {
	c, _ := newTestCache(t, time.Hour, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.Set(ctx, CacheKey("clear", fmt.Sprintf("item-%d", i)), []byte("x"))
	}
	c.Clear(ctx)

	for i := 0; i < 3; i++ {
		if _, ok := c.Get(ctx, CacheKey("clear", fmt.Sprintf("item-%d", i))); ok {
			t.Errorf("item-%d survived Clear", i)
		}
	}
}

func TestCacheEviction(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		c.Set(ctx, CacheKey("evict", fmt.Sprintf("item-%d", i)), []byte(fmt.Sprintf("v%d", i)))
	}

	if c.Len() > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, CacheKey("evict", "item-4")); !ok {
		t.Error("most recent entry should survive eviction")
	}
}

func TestCacheStats(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 100)
	cacheHits.Store(0)
	cacheMisses.Store(0)

	ctx := context.Background()
	key := CacheKey("stats", "test")

	c.Get(ctx, key)
	_, misses := CacheStats()
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}

	c.Set(ctx, key, []byte("x"))
	c.Get(ctx, key)

	hits, misses := CacheStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}

func TestNewRangeCacheBadRedisURL(t *testing.T) {
	c := NewRangeCache(CacheConfig{TTL: time.Minute, RedisURL: "not a url"})
	if c.rdb != nil {
		t.Error("expected L2 disabled for invalid redis URL")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
