package counter

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendNames(t *testing.T) {
	assert.Equal(t, []string{"datastore", "local", "redis", "sqlite"}, BackendNames())
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		c    Config
		ok   bool
	}{
		{"local", Config{Backend: "local", Table: DefaultTable}, true},
		{"unknown backend", Config{Backend: "dynamodb", Table: DefaultTable}, false},
		{"no table", Config{Backend: "local"}, false},
		{"redis without addr", Config{Backend: "redis", Table: DefaultTable}, false},
		{"redis", Config{Backend: "redis", Table: DefaultTable, Redis: RedisConfig{Addr: "localhost:6379"}}, true},
		{"sqlite without dsn", Config{Backend: "sqlite", Table: DefaultTable}, false},
		{"datastore", Config{Backend: "datastore", Table: DefaultTable}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			}
		})
	}
}

func TestOpenSQLiteProvisioned(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{
		Backend: "sqlite",
		Table:   DefaultTable,
		SQLite:  SQLiteConfig{DSN: ":memory:", Provision: true},
	})
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Increment(ctx, "views", CountField)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpenSQLiteWithoutProvision(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{
		Backend: "sqlite",
		Table:   DefaultTable,
		SQLite:  SQLiteConfig{DSN: ":memory:"},
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Increment(ctx, "views", CountField)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := Open(ctx, Config{Backend: "redis", Table: "stats", Redis: RedisConfig{Addr: mr.Addr()}})
	require.NoError(t, err)

	_, err = s.Increment(ctx, "views", CountField)
	require.NoError(t, err)
	assert.Equal(t, "1", mr.HGet("stats:views", CountField))
	assert.NoError(t, s.Close())
}

type countingStore struct {
	Store
	closed int
}

func (s *countingStore) Close() error {
	s.closed++
	return nil
}

func TestProviderOpensOnce(t *testing.T) {
	opened := 0
	p := &Provider{open: func(ctx context.Context) (Store, error) {
		opened++
		return NewLocalBackend(DefaultTable).Table(DefaultTable), nil
	}}

	s1, err := p.Store(context.Background())
	require.NoError(t, err)
	s2, err := p.Store(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, opened)
}

func TestProviderRetriesFailedOpen(t *testing.T) {
	fail := true
	p := &Provider{open: func(ctx context.Context) (Store, error) {
		if fail {
			return nil, unavailable("open", errors.New("boom"))
		}
		return NewLocalBackend(DefaultTable).Table(DefaultTable), nil
	}}

	_, err := p.Store(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	fail = false
	_, err = p.Store(context.Background())
	assert.NoError(t, err)
}

func TestStaticProviderClose(t *testing.T) {
	cs := &countingStore{Store: NewLocalBackend(DefaultTable).Table(DefaultTable)}
	p := StaticProvider(cs)

	s, err := p.Store(context.Background())
	require.NoError(t, err)
	assert.Same(t, cs, s)

	require.NoError(t, p.Close())
	assert.Equal(t, 1, cs.closed)

	_, err = p.Store(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestNewProviderInvalidConfig(t *testing.T) {
	p := NewProvider(Config{Backend: "nope", Table: DefaultTable})
	_, err := p.Store(context.Background())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBackendErrorKeepsCause(t *testing.T) {
	cause := errors.New("table missing")
	err := unavailable("increment", cause)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "table missing")
}
