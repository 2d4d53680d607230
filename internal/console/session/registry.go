package session

import (
	"context"
	"sync"
	"time"

	"github.com/tair/catalog-console/pkg/logger"
	"github.com/tair/catalog-console/pkg/storage"
)

// Registry owns the sessions of all browsers, keyed by client id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	catalog Catalog
	store   storage.Storage
	opts    Options
	ttl     time.Duration
	now     func() time.Time
}

// NewRegistry creates a registry that drops sessions idle for longer than ttl.
func NewRegistry(catalog Catalog, store storage.Storage, opts Options, ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		catalog:  catalog,
		store:    store,
		opts:     opts,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session for id, creating it on first use.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.touch(r.now())
		return s
	}

	// favorites are loaded outside the registry lock
	created := New(ctx, id, r.catalog, r.store, r.opts)
	created.touch(r.now())

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	r.sessions[id] = created
	logger.Debug(ctx).Str("client_id", id).Msg("Console session created")
	return created
}

// Evict removes sessions idle longer than the TTL and returns how many were removed.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				logger.Logger.Info().Int("evicted", n).Int("remaining", r.Len()).Msg("Idle console sessions evicted")
			}
		}
	}
}
