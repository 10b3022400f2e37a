// Package registry runs the reconciliation fetch cycle across all
// configured backend adapters.
package registry

import (
	"context"
	"sync"

	"github.com/argusproj/argus/internal/adapter"
	"github.com/argusproj/argus/internal/config"
	"github.com/argusproj/argus/internal/unified"
)

// Registry holds the configured adapters in registry order.
type Registry struct {
	adapters []adapter.Adapter
}

// New builds adapters for every configured backend.
func New(backends []config.BackendConfig) (*Registry, error) {
	adapters := make([]adapter.Adapter, 0, len(backends))
	for _, cfg := range backends {
		a, err := adapter.New(cfg)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return &Registry{adapters: adapters}, nil
}

// Kinds returns the backend kinds in registry order.
func (r *Registry) Kinds() []unified.Backend {
	kinds := make([]unified.Backend, 0, len(r.adapters))
	for _, a := range r.adapters {
		kinds = append(kinds, a.Kind())
	}
	return kinds
}

// FetchAll invokes every adapter concurrently and concatenates the results
// in registry order, within-backend order preserved as returned. Each
// adapter bounds its own network call, so the whole fan-out is bounded by
// the slowest single adapter, not the sum.
func (r *Registry) FetchAll(ctx context.Context) []unified.Agent {
	results := make([][]unified.Agent, len(r.adapters))

	var wg sync.WaitGroup
	for i, a := range r.adapters {
		wg.Add(1)
		go func(i int, a adapter.Adapter) {
			defer wg.Done()
			results[i] = a.Fetch(ctx)
		}(i, a)
	}
	wg.Wait()

	var merged []unified.Agent
	for _, agents := range results {
		merged = append(merged, agents...)
	}
	return merged
}
