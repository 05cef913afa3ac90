// Package inflight rejects a second request for a key while the first is
// still outstanding.
package inflight

import (
	"context"
	"sync"
)

// Guard hands out exclusive, non-blocking claims on keys.
type Guard interface {
	// TryAcquire claims key. ok is false when another holder has it.
	// release must be called exactly once when ok is true.
	TryAcquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard creates an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

// TryAcquire implements Guard.
func (g *MemoryGuard) TryAcquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, false, nil
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true, nil
}

// Held reports whether key is currently claimed.
func (g *MemoryGuard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.held[key]
	return busy
}

var _ Guard = (*MemoryGuard)(nil)
