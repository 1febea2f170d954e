package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

func TestMemoryCatalogCacheExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCatalogCache(time.Minute)
	cache.now = func() time.Time { return now }

	if _, ok := cache.Get(context.Background()); ok {
		t.Fatal("expected miss on empty cache")
	}

	cache.Put(context.Background(), []contractx.ToolDefinition{{Name: "get-ec2-indexes"}})
	tools, ok := cache.Get(context.Background())
	if !ok || len(tools) != 1 {
		t.Fatalf("Get() = %#v, %v", tools, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get(context.Background()); ok {
		t.Fatal("expected miss after ttl")
	}
}

func TestRedisCatalogCacheRoundTrip(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisCatalogCacheWithClient(client, time.Minute)
	ctx := context.Background()

	if _, ok := cache.Get(ctx); ok {
		t.Fatal("expected miss on empty redis")
	}

	cache.Put(ctx, []contractx.ToolDefinition{
		{Name: "get-ec2-region-pricing", Description: "EC2"},
		{Name: "get-azure-region-pricing"},
	})

	tools, ok := cache.Get(ctx)
	if !ok || len(tools) != 2 || tools[0].Description != "EC2" {
		t.Fatalf("Get() = %#v, %v", tools, ok)
	}
	if ttl := srv.TTL(defaultCatalogKey); ttl != time.Minute {
		t.Fatalf("TTL = %v, want 1m", ttl)
	}

	srv.FastForward(2 * time.Minute)
	if _, ok := cache.Get(ctx); ok {
		t.Fatal("expected miss after ttl")
	}
}

func TestRedisCatalogCacheCorruptPayload(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	if err := srv.Set(defaultCatalogKey, "not-json"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisCatalogCacheWithClient(client, time.Minute)
	if _, ok := cache.Get(context.Background()); ok {
		t.Fatal("corrupt payload must be a miss")
	}
}

func TestNewCatalogCacheSelection(t *testing.T) {
	t.Parallel()

	cache, err := NewCatalogCache(Config{})
	if err != nil || cache != nil {
		t.Fatalf("NewCatalogCache(no ttl) = %v, %v", cache, err)
	}

	cache, err = NewCatalogCache(Config{CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewCatalogCache() error = %v", err)
	}
	if _, ok := cache.(*MemoryCatalogCache); !ok {
		t.Fatalf("expected memory cache, got %T", cache)
	}

	if _, err := NewCatalogCache(Config{CacheTTL: time.Minute, RedisURL: "://bad"}); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}
