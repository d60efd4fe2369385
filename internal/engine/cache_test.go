package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("jd_analyze", "Must have Go")
		k2 := CacheKey("jd_analyze", "Must have Go")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("jd_analyze", "golang")
		k2 := CacheKey("jd_analyze", "python")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("part boundaries matter", func(t *testing.T) {
		if CacheKey("ab", "c") == CacheKey("a", "bc") {
			t.Error("keys for different part splits collided")
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "ga:" {
			t.Errorf("expected ga: prefix, got %q", k[:3])
		}
	})
}

func TestCacheGetSet(t *testing.T) {
	InitCache("", time.Minute, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss on empty cache")
	}

	CacheSet(ctx, key, []byte("hello"))

	got, ok := CacheGet(ctx, key)
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestCacheJSON(t *testing.T) {
	InitCache("", time.Minute, 100, 5*time.Minute)
	ctx := context.Background()

	type analysis struct {
		Title    string   `json:"title"`
		Required []string `json:"required"`
	}
	key := CacheKey("json", "analysis")
	CacheStoreJSON(ctx, key, analysis{Title: "Data Analyst", Required: []string{"SQL"}})

	got, ok := CacheLoadJSON[analysis](ctx, key)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Title != "Data Analyst" || len(got.Required) != 1 {
		t.Errorf("unexpected value: %+v", got)
	}

	CacheSet(ctx, CacheKey("json", "corrupt"), []byte("{not json"))
	if _, ok := CacheLoadJSON[analysis](ctx, CacheKey("json", "corrupt")); ok {
		t.Error("expected decode failure to report a miss")
	}
}

func TestCacheExpiration(t *testing.T) {
	InitCache("", time.Millisecond, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheSet(ctx, key, []byte("temp"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	InitCache("", time.Minute, 3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		CacheSet(ctx, CacheKey("evict", fmt.Sprintf("item-%d", i)), []byte(fmt.Sprintf("v%d", i)))
	}

	count := 0
	resultCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
	if _, ok := CacheGet(ctx, CacheKey("evict", "item-4")); !ok {
		t.Error("newest entry should survive eviction")
	}
}

func TestCacheStats(t *testing.T) {
	InitCache("", time.Minute, 100, 5*time.Minute)
	cacheHits.Store(0)
	cacheMisses.Store(0)

	ctx := context.Background()
	key := CacheKey("stats", "test")

	CacheGet(ctx, key)
	if _, misses := CacheStats(); misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}

	CacheSet(ctx, key, []byte("x"))
	CacheGet(ctx, key)

	hits, misses := CacheStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}
