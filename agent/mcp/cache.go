package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

const defaultCatalogKey = "pricing:mcp:tools"

// CatalogCache holds the tools/list result, which the remote service treats
// as immutable once advertised.
type CatalogCache interface {
	Get(ctx context.Context) ([]contractx.ToolDefinition, bool)
	Put(ctx context.Context, tools []contractx.ToolDefinition)
}

// NewCatalogCache picks a cache from cfg: none when CacheTTL is zero, redis
// when RedisURL is set, in-process memory otherwise.
func NewCatalogCache(cfg Config) (CatalogCache, error) {
	if cfg.CacheTTL <= 0 {
		return nil, nil
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return NewMemoryCatalogCache(cfg.CacheTTL), nil
	}
	cache, err := NewRedisCatalogCache(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}
	return cache, nil
}

type MemoryCatalogCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	tools     []contractx.ToolDefinition
	expiresAt time.Time
	now       func() time.Time
}

func NewMemoryCatalogCache(ttl time.Duration) *MemoryCatalogCache {
	return &MemoryCatalogCache{ttl: ttl, now: time.Now}
}

func (m *MemoryCatalogCache) Get(context.Context) ([]contractx.ToolDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tools == nil || m.now().After(m.expiresAt) {
		return nil, false
	}
	return append([]contractx.ToolDefinition(nil), m.tools...), true
}

func (m *MemoryCatalogCache) Put(_ context.Context, tools []contractx.ToolDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = append([]contractx.ToolDefinition{}, tools...)
	m.expiresAt = m.now().Add(m.ttl)
}

// RedisCatalogCache shares the catalog across processes. Redis failures
// degrade to a cache miss.
type RedisCatalogCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisCatalogCache(redisURL string, ttl time.Duration) (*RedisCatalogCache, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis url: %v", contractx.ErrConfig, err)
	}
	return NewRedisCatalogCacheWithClient(redis.NewClient(opts), ttl), nil
}

func NewRedisCatalogCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{
		client: client,
		key:    defaultCatalogKey,
		ttl:    ttl,
	}
}

func (r *RedisCatalogCache) Get(ctx context.Context) ([]contractx.ToolDefinition, bool) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", r.key).Msg("catalog cache read failed")
		}
		return nil, false
	}

	var tools []contractx.ToolDefinition
	if err := json.Unmarshal(raw, &tools); err != nil {
		log.Warn().Err(err).Str("key", r.key).Msg("catalog cache payload is corrupt")
		return nil, false
	}
	return tools, true
}

func (r *RedisCatalogCache) Put(ctx context.Context, tools []contractx.ToolDefinition) {
	payload, err := json.Marshal(tools)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.key, payload, r.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", r.key).Msg("catalog cache write failed")
	}
}

func (r *RedisCatalogCache) Close() error {
	return r.client.Close()
}
