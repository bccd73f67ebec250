package sync

import (
	"context"
	stdsync "sync"
	"time"

	"finresolve/internal/cache"
	"finresolve/internal/store"
)

// Registry hands out one engine per identity. Engines are created and
// started on first use and shared by every subsequent request for the
// same user, preserving the single-owner semantics of the profile.
type Registry struct {
	store  store.ProfileStore
	cache  cache.Cache
	window time.Duration

	mu      stdsync.Mutex
	engines map[string]*Engine
}

// NewRegistry creates a registry producing engines with the given
// debounce window.
func NewRegistry(st store.ProfileStore, ca cache.Cache, window time.Duration) *Registry {
	return &Registry{
		store:   st,
		cache:   ca,
		window:  window,
		engines: make(map[string]*Engine),
	}
}

// ForUser returns the engine for the identity, creating and starting it
// on first use. Start has already completed when ForUser returns, so the
// caller always observes a READY engine.
func (r *Registry) ForUser(ctx context.Context, userID string) *Engine {
	r.mu.Lock()
	engine, ok := r.engines[userID]
	if !ok {
		engine = NewEngine(StaticAuth(userID), r.store, r.cache, WithDebounce(r.window))
		r.engines[userID] = engine
	}
	r.mu.Unlock()

	engine.Start(ctx)
	return engine
}

// Close flushes pending persists on every engine.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, engine := range r.engines {
		engine.Close()
	}
}
