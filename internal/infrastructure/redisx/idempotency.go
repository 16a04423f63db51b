// Package redisx provides the Redis-backed idempotency cache used by order
// creation. The cache is an optimization layer only: when Redis is absent or
// unreachable, order creation proceeds without deduplication.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyIdemOrderCreate = "idem:order:create:%s"

var ttlIdempotency = 24 * time.Hour

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// IdempotencyCache maps client-supplied Idempotency-Key values to the order id
// created for them. A nil *IdempotencyCache is valid and caches nothing.
type IdempotencyCache struct {
	rdb *redis.Client
}

func NewIdempotencyCache(rdb *redis.Client) *IdempotencyCache {
	if rdb == nil {
		return nil
	}
	return &IdempotencyCache{rdb: rdb}
}

// Lookup returns the order id previously stored for the key, or "" when the
// key is unknown. Redis errors degrade to a miss.
func (c *IdempotencyCache) Lookup(ctx context.Context, key string) string {
	if c == nil || key == "" {
		return ""
	}
	orderID, err := c.rdb.Get(ctx, fmt.Sprintf(keyIdemOrderCreate, key)).Result()
	if err != nil {
		// An unreachable cache degrades to a miss; the store stays
		// correct without it.
		return ""
	}
	return orderID
}

// Remember stores the order id for the key with a 24h TTL. Best-effort.
func (c *IdempotencyCache) Remember(ctx context.Context, key, orderID string) {
	if c == nil || key == "" {
		return
	}
	_ = c.rdb.Set(ctx, fmt.Sprintf(keyIdemOrderCreate, key), orderID, ttlIdempotency).Err()
}
