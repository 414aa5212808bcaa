package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type ttlItem[T any] struct {
	value    T
	storedAt time.Time
}

// TTLCache is an in-process cache for snapshot-style values with a short freshness window.
type TTLCache[T any] struct {
	name  string
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]ttlItem[T]
	group singleflight.Group
	opts  options
}

func NewTTLCache[T any](name string, ttl time.Duration, opts ...Option) *TTLCache[T] {
	if ttl <= 0 {
		ttl = SnapshotTTL
	}
	return &TTLCache[T]{
		name:  name,
		ttl:   ttl,
		items: make(map[string]ttlItem[T]),
		opts:  buildOptions(opts),
	}
}

// Get returns the value under key if it is still fresh.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.opts.now().Sub(it.storedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	c.items[key] = ttlItem[T]{value: value, storedAt: c.opts.now()}
	c.mu.Unlock()
}

// GetOrLoad returns the fresh value under key or runs load once for all concurrent callers.
// Load errors are returned and not cached.
func (c *TTLCache[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		c.opts.metrics.CacheHit(c.name)
		return v, nil
	}
	c.opts.metrics.CacheMiss(c.name)

	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		val, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Set(key, val)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Purge drops expired entries and returns how many were removed.
func (c *TTLCache[T]) Purge() int {
	now := c.opts.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, it := range c.items {
		if now.Sub(it.storedAt) >= c.ttl {
			delete(c.items, k)
			n++
		}
	}
	return n
}
