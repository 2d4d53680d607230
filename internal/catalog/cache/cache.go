// Package cache is the client-side query cache that owns server data fetched by the
// console. Entries are keyed, fetched at most once concurrently, and refetched after
// Invalidate.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/tair/catalog-console/pkg/logger"
	"github.com/tair/catalog-console/pkg/metrics"
)

// Listener is called synchronously after key has been invalidated.
type Listener func(key string)

type entry struct {
	value any
}

// Client is a goroutine-safe keyed cache.
type Client struct {
	mu          sync.Mutex
	entries     map[string]entry
	generations map[string]uint64
	listeners   map[string]map[uint64]Listener
	nextID      uint64

	group singleflight.Group

	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// New creates an empty cache whose counters are registered on reg.
func New(reg prometheus.Registerer) *Client {
	return &Client{
		entries:     make(map[string]entry),
		generations: make(map[string]uint64),
		listeners:   make(map[string]map[uint64]Listener),
		hits: metrics.Register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "catalog_cache_hits_total", Help: "Query cache hits"},
			[]string{"key"},
		)),
		misses: metrics.Register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "catalog_cache_misses_total", Help: "Query cache misses"},
			[]string{"key"},
		)),
		invalidations: metrics.Register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "catalog_cache_invalidations_total", Help: "Query cache invalidations"},
			[]string{"key"},
		)),
	}
}

// Fetch returns the fresh value cached under key, or calls fn and caches its result.
// Concurrent callers that miss the same key share a single call. Errors are returned
// to every waiting caller and are not cached. A result that arrives after key was
// invalidated is returned to its callers but not stored.
func Fetch[T any](ctx context.Context, c *Client, key string, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			c.hits.WithLabelValues(key).Inc()
			return typed, nil
		}
	}
	c.misses.WithLabelValues(key).Inc()

	gen := c.generation(key)
	flightKey := fmt.Sprintf("%s#%d", key, gen)

	v, err, shared := c.group.Do(flightKey, func() (any, error) {
		// in-flight fetches outlive the caller that started them
		val, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(key, val, gen)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		logger.Debug(ctx).Str("key", key).Msg("Joined in-flight fetch")
	}
	typed, _ := v.(T)
	return typed, nil
}

// Invalidate marks key stale so that the next Fetch calls the fetcher again,
// then notifies the key's listeners.
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.generations[key]++
	listeners := make([]Listener, 0, len(c.listeners[key]))
	for _, l := range c.listeners[key] {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	c.invalidations.WithLabelValues(key).Inc()
	logger.Logger.Debug().Str("key", key).Int("listeners", len(listeners)).Msg("Cache key invalidated")

	for _, l := range listeners {
		l(key)
	}
}

// Subscribe registers l for invalidations of key. The returned func removes it.
func (c *Client) Subscribe(key string, l Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	if c.listeners[key] == nil {
		c.listeners[key] = make(map[uint64]Listener)
	}
	c.listeners[key][id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.listeners[key], id)
			if len(c.listeners[key]) == 0 {
				delete(c.listeners, key)
			}
		})
	}
}

// Fresh reports whether key currently holds a fresh value.
func (c *Client) Fresh(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *Client) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.value, ok
}

func (c *Client) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

func (c *Client) store(key string, value any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] != gen {
		return
	}
	c.entries[key] = entry{value: value}
}
