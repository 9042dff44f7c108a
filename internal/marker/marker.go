// Package marker records which view events were already applied, so a
// redelivered message does not count twice.
package marker

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL covers the Pub/Sub redelivery window the subscriber relies on.
const DefaultTTL = time.Minute

type ProcessMarker interface {
	// Acquire returns true when the caller is the first to claim msgID.
	Acquire(ctx context.Context, msgID string) (bool, error)
	// Release drops a claim so a redelivery can be processed again.
	Release(ctx context.Context, msgID string) error
}

var _ ProcessMarker = (*LocalMarker)(nil)

type LocalMarker struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewLocalMarker(ttl time.Duration) *LocalMarker {
	return &LocalMarker{cache: cache.New(ttl, ttl), ttl: ttl}
}

func (c *LocalMarker) Acquire(ctx context.Context, msgID string) (bool, error) {
	err := c.cache.Add(msgID, struct{}{}, c.ttl)
	return err == nil, nil
}

func (c *LocalMarker) Release(ctx context.Context, msgID string) error {
	c.cache.Delete(msgID)
	return nil
}

var _ ProcessMarker = (*RedisMarker)(nil)

// RedisMarker shares claims between subscriber processes.
type RedisMarker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisMarker(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisMarker {
	return &RedisMarker{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisMarker) Acquire(ctx context.Context, msgID string) (bool, error) {
	return c.client.SetNX(ctx, c.prefix+msgID, "v", c.ttl).Result()
}

func (c *RedisMarker) Release(ctx context.Context, msgID string) error {
	return c.client.Del(ctx, c.prefix+msgID).Err()
}
