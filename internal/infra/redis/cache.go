// Package redis implements the stale-data cache collaborator used by the
// FALLBACK recovery strategy.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// retention bounds how long a payload is kept for stale fallback after its
// freshness TTL has lapsed.
const retention = 24 * time.Hour

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

type entry struct {
	Payload  json.RawMessage `json:"payload"`
	StoredAt time.Time       `json:"stored_at"`
	FreshTTL time.Duration   `json:"fresh_ttl"`
}

// Cache stores operation payloads and serves them back past their freshness
// TTL as degraded fallback data.
type Cache struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewCache creates a Redis-backed stale cache and verifies connectivity.
func NewCache(cfg Config, log *slog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if log == nil {
		log = slog.Default()
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{rdb: rdb, log: log}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

func cacheKey(operation string) string {
	return fmt.Sprintf("fallback:%s", operation)
}

// Put stores a fresh payload for an operation. freshTTL marks how long the
// data counts as fresh; the entry itself is retained longer for fallback.
func (c *Cache) Put(ctx context.Context, operation string, payload any, freshTTL time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	data, err := json.Marshal(entry{Payload: raw, StoredAt: time.Now(), FreshTTL: freshTTL})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(operation), data, retention).Err(); err != nil {
		return fmt.Errorf("failed to store fallback payload: %w", err)
	}
	return nil
}

// GetStaleData returns the last stored payload for an operation, fresh or
// not. Redis failures are logged and reported as a miss so the fallback
// chain can continue to the synthesized payload.
func (c *Cache) GetStaleData(ctx context.Context, operation string) (any, bool) {
	data, err := c.rdb.Get(ctx, cacheKey(operation)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("Stale cache lookup failed", "operation", operation, "error", err)
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.log.Warn("Corrupt stale cache entry", "operation", operation, "error", err)
		return nil, false
	}

	var payload any
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, false
	}
	return payload, true
}
