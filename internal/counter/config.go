package counter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// Config holds the construction parameters of a Store.
type Config struct {
	// Backend is one of BackendNames().
	Backend string `yaml:"backend"`
	// Table is the storage target: a table, a kind, or a key prefix.
	Table string `yaml:"table"`

	Redis     RedisConfig     `yaml:"redis"`
	Datastore DatastoreConfig `yaml:"datastore"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

type DatastoreConfig struct {
	ProjectID string `yaml:"project_id"`
	Namespace string `yaml:"namespace"`
}

type SQLiteConfig struct {
	DSN string `yaml:"dsn"`
	// Provision creates the table on open.
	Provision bool `yaml:"provision"`
}

type opener func(ctx context.Context, c Config) (Store, error)

var openers = map[string]opener{
	"local":     openLocal,
	"redis":     openRedis,
	"datastore": openDatastore,
	"sqlite":    openSQLite,
}

// BackendNames returns the supported backends, sorted.
func BackendNames() []string {
	names := lo.Keys(openers)
	sort.Strings(names)
	return names
}

func (c Config) Validate() error {
	if !lo.Contains(BackendNames(), c.Backend) {
		return fmt.Errorf("%w: unknown backend %q, want one of %v", ErrInvalidArgument, c.Backend, BackendNames())
	}
	if c.Table == "" {
		return fmt.Errorf("%w: table must be specified", ErrInvalidArgument)
	}
	switch c.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis addr must be specified", ErrInvalidArgument)
		}
	case "sqlite":
		if c.SQLite.DSN == "" {
			return fmt.Errorf("%w: sqlite dsn must be specified", ErrInvalidArgument)
		}
	}
	return nil
}

// Open validates c and builds the store it describes. The returned store owns
// its client and releases it on Close.
func Open(ctx context.Context, c Config) (Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return openers[c.Backend](ctx, c)
}

func openLocal(_ context.Context, c Config) (Store, error) {
	return NewLocalBackend(c.Table).Table(c.Table), nil
}

func openRedis(_ context.Context, c Config) (Store, error) {
	cl := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{c.Redis.Addr},
		DB:           c.Redis.DB,
		DialTimeout:  time.Second * 2,
		ReadTimeout:  time.Second * 2,
		WriteTimeout: time.Second * 2,
		PoolSize:     200,
		PoolTimeout:  time.Second * 5,
	})
	s := NewRedisStore(cl, c.Table)
	s.owned = true
	return s, nil
}

func openDatastore(ctx context.Context, c Config) (Store, error) {
	cl, err := datastore.NewClient(ctx, c.Datastore.ProjectID)
	if err != nil {
		return nil, unavailable("datastore.NewClient", err)
	}
	s := NewDatastoreStore(cl, c.Table, c.Datastore.Namespace)
	s.owned = true
	return s, nil
}

func openSQLite(ctx context.Context, c Config) (Store, error) {
	db, err := OpenSQLite(c.SQLite.DSN)
	if err != nil {
		return nil, unavailable("open", err)
	}
	s := NewSQLiteStore(db, c.Table)
	s.owned = true
	if c.SQLite.Provision {
		if err := s.ProvisionTable(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}
