package counter

import (
	"context"
	"fmt"
	"sync"
)

// Provider hands out one Store per process, opened on first use.
// A failed open is not remembered, so the next call tries again.
type Provider struct {
	mu    sync.Mutex
	open  func(ctx context.Context) (Store, error)
	store Store
}

func NewProvider(c Config) *Provider {
	return &Provider{
		open: func(ctx context.Context) (Store, error) {
			return Open(ctx, c)
		},
	}
}

// StaticProvider always returns s.
func StaticProvider(s Store) *Provider {
	return &Provider{store: s}
}

func (p *Provider) Store(ctx context.Context) (Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store != nil {
		return p.store, nil
	}
	if p.open == nil {
		return nil, fmt.Errorf("%w: provider closed", ErrBackendUnavailable)
	}
	s, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	p.store = s
	return s, nil
}

// Close closes the store if it was ever opened.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		return nil
	}
	err := p.store.Close()
	p.store = nil
	return err
}
