package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boutledger/escrowsettle/internal/models"
)

// Cache is a read-through fast path for idempotency lookups in front of
// Postgres. Redis is invalidated, never authoritative: every record it
// returns was first written to Postgres by Store.Record.
type Cache struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// NewCache connects to Redis at addr. Returns an error if the server is
// unreachable, matching the teacher's pub/sub client's connect-time check.
func NewCache(addr, password string, db int, ttl time.Duration) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Printf("Successfully connected to Redis at %s", addr)
	return &Cache{client: rdb, ctx: ctx, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func cacheKey(scope, key string) string {
	return "idempotency:" + scope + ":" + key
}

// Get returns the cached record for (scope, key), if present and unexpired.
func (c *Cache) Get(scope, key string) (*models.IdempotencyKey, bool) {
	raw, err := c.client.Get(c.ctx, cacheKey(scope, key)).Bytes()
	if err != nil {
		return nil, false
	}
	var rec models.IdempotencyKey
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

// Set populates the cache with a record already durably committed to
// Postgres.
func (c *Cache) Set(rec *models.IdempotencyKey) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.client.Set(c.ctx, cacheKey(rec.Scope, rec.Key), raw, c.ttl).Err(); err != nil {
		log.Printf("idempotency cache set failed for %s/%s: %v", rec.Scope, rec.Key, err)
	}
}

// Delete evicts a cached record.
func (c *Cache) Delete(scope, key string) {
	c.client.Del(c.ctx, cacheKey(scope, key))
}
