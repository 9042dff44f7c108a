package counter

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps each record as a Redis hash at "<table>:<name>".
type RedisStore struct {
	client redis.UniversalClient
	table  string
	owned  bool
}

// NewRedisStore wraps a client owned by the caller.
func NewRedisStore(client redis.UniversalClient, table string) *RedisStore {
	return &RedisStore{client: client, table: table}
}

func (s *RedisStore) key(name string) string {
	return s.table + ":" + name
}

func (s *RedisStore) Get(ctx context.Context, name string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	n, err := s.client.HGet(ctx, s.key(name), CountField).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("HGET", err)
	}
	return n, nil
}

func (s *RedisStore) Increment(ctx context.Context, name, field string) (int64, error) {
	if err := checkField(name, field); err != nil {
		return 0, err
	}
	n, err := s.client.HIncrBy(ctx, s.key(name), field, 1).Result()
	if err != nil {
		return 0, unavailable("HINCRBY", err)
	}
	return n, nil
}

func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
