package counter

import (
	"context"
	"fmt"
	"sync"

	"github.com/patrickmn/go-cache"
)

var _ Store = (*LocalStore)(nil)

// LocalBackend is an in-process backend holding a set of provisioned tables.
type LocalBackend struct {
	mu     sync.RWMutex
	tables map[string]*cache.Cache
}

// NewLocalBackend returns a backend with the given tables already provisioned.
func NewLocalBackend(tables ...string) *LocalBackend {
	b := &LocalBackend{tables: map[string]*cache.Cache{}}
	for _, t := range tables {
		b.Provision(t)
	}
	return b
}

// Provision creates table if it does not exist yet.
func (b *LocalBackend) Provision(table string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tables[table]; !ok {
		b.tables[table] = cache.New(cache.NoExpiration, 0)
	}
}

// Table binds a store to table. The table does not need to exist; operations
// against a missing one fail with ErrBackendUnavailable.
func (b *LocalBackend) Table(table string) *LocalStore {
	return &LocalStore{backend: b, table: table}
}

func (b *LocalBackend) lookup(table string) (*cache.Cache, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.tables[table]
	return c, ok
}

type LocalStore struct {
	backend *LocalBackend
	table   string
}

func localKey(name, field string) string {
	return name + "\x00" + field
}

func (s *LocalStore) records() (*cache.Cache, error) {
	c, ok := s.backend.lookup(s.table)
	if !ok {
		return nil, fmt.Errorf("table %q not found", s.table)
	}
	return c, nil
}

func (s *LocalStore) Get(ctx context.Context, name string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	c, err := s.records()
	if err != nil {
		return 0, unavailable("get", err)
	}
	v, ok := c.Get(localKey(name, CountField))
	if !ok {
		return 0, nil
	}
	return v.(int64), nil
}

func (s *LocalStore) Increment(ctx context.Context, name, field string) (int64, error) {
	if err := checkField(name, field); err != nil {
		return 0, err
	}
	c, err := s.records()
	if err != nil {
		return 0, unavailable("increment", err)
	}
	k := localKey(name, field)
	// Add is a no-op for an existing field. Each call holds the cache lock.
	_ = c.Add(k, int64(0), cache.NoExpiration)
	n, err := c.IncrementInt64(k, 1)
	if err != nil {
		return 0, unavailable("increment", err)
	}
	return n, nil
}

func (s *LocalStore) Close() error {
	return nil
}
