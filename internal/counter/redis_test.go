package counter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, DefaultTable), mr
}

func TestRedisStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s, _ := newTestRedisStore(t)
		return s
	})
}

func TestRedisStorePreloaded(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.HSet(DefaultTable+":views", CountField, "42")

	n, err := s.Get(context.Background(), "views")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = s.Increment(context.Background(), "views", CountField)
	require.NoError(t, err)
	assert.Equal(t, int64(43), n)
}

func TestRedisStoreKeyLayout(t *testing.T) {
	s, mr := newTestRedisStore(t)
	_, err := s.Increment(context.Background(), "downloads", "total")
	require.NoError(t, err)

	assert.Equal(t, "1", mr.HGet(DefaultTable+":downloads", "total"))
	assert.False(t, mr.Exists(DefaultTable+":views"))
}

func TestRedisStoreUnreachable(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "views")
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	_, err = s.Increment(context.Background(), "views", CountField)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestRedisStoreNonNumericField(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.HSet(DefaultTable+":views", CountField, "many")

	_, err := s.Get(context.Background(), "views")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}
