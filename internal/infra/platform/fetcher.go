// Package platform provides bug-bounty platform API clients that fetch
// program scope definitions.
package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/scopewatch/api/pkg/domain/program"
	"github.com/scopewatch/api/pkg/domain/scope"
)

// Fetcher retrieves the current scope snapshot for a program handle.
type Fetcher interface {
	// FetchScope returns the parsed, normalized scope definition.
	FetchScope(ctx context.Context, handle string) (scope.Snapshot, error)

	// Platform returns the platform this fetcher serves.
	Platform() program.Platform
}

// Registry selects a Fetcher by platform name.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[program.Platform]Fetcher
}

// NewRegistry creates an empty fetcher registry.
func NewRegistry() *Registry {
	return &Registry{
		fetchers: make(map[program.Platform]Fetcher),
	}
}

// Register adds a fetcher, replacing any previous one for the platform.
func (r *Registry) Register(f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[f.Platform()] = f
}

// Get returns the fetcher for the platform.
func (r *Registry) Get(p program.Platform) (Fetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[p]
	if !ok {
		return nil, fmt.Errorf("no scope fetcher registered for platform %q", p)
	}
	return f, nil
}

// Platforms lists the registered platforms.
func (r *Registry) Platforms() []program.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]program.Platform, 0, len(r.fetchers))
	for p := range r.fetchers {
		out = append(out, p)
	}
	return out
}
