package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const seriesCacheName = "series"

// SeriesFetcher loads closing prices from upstream on a cache miss.
type SeriesFetcher interface {
	FetchCloses(ctx context.Context, symbol, interval string, limit int) ([]float64, error)
}

// SeriesCache maps (symbol, interval, limit) to closing prices with a long TTL.
// Upstream is called at most once per key per TTL window; concurrent misses on
// the same key share one fetch. Failed fetches are never stored.
type SeriesCache struct {
	store   Store
	fetcher SeriesFetcher
	ttl     time.Duration
	group   singleflight.Group
	opts    options
}

func NewSeriesCache(store Store, fetcher SeriesFetcher, ttl time.Duration, opts ...Option) *SeriesCache {
	if ttl <= 0 {
		ttl = SeriesTTL
	}
	return &SeriesCache{
		store:   store,
		fetcher: fetcher,
		ttl:     ttl,
		opts:    buildOptions(opts),
	}
}

// TTL returns the freshness window.
func (c *SeriesCache) TTL() time.Duration { return c.ttl }

// Store returns the backing store.
func (c *SeriesCache) Store() Store { return c.store }

// GetOrFetch returns cached closes for the key, fetching and storing them on a miss.
// The returned slice is a private copy.
func (c *SeriesCache) GetOrFetch(ctx context.Context, symbol, interval string, limit int) ([]float64, error) {
	key := SeriesKey(symbol, interval, limit)
	if closes, ok := c.lookup(ctx, key); ok {
		c.opts.metrics.CacheHit(seriesCacheName)
		return closes, nil
	}
	c.opts.metrics.CacheMiss(seriesCacheName)

	// Detach from the caller's cancellation so one abandoned request does not fail
	// every waiter sharing this fetch. The fetcher still applies its own timeout.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(key, func() (any, error) {
		closes, err := c.fetcher.FetchCloses(fetchCtx, symbol, interval, limit)
		if err != nil {
			return nil, err
		}
		entry := Entry{Value: cloneFloats(closes), StoredAt: c.opts.now()}
		if err := c.store.Set(fetchCtx, key, entry); err != nil {
			c.opts.logger.Warn("series cache write failed",
				zap.String("key", key), zap.String("store", c.store.Name()), zap.Error(err))
		}
		return closes, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.opts.logger.Debug("series fetch coalesced", zap.String("key", key))
	}
	return cloneFloats(v.([]float64)), nil
}

func (c *SeriesCache) lookup(ctx context.Context, key string) ([]float64, bool) {
	e, ok, err := c.store.Get(ctx, key)
	if err != nil {
		// A broken store degrades to a miss; the upstream is still reachable.
		c.opts.metrics.CacheError(seriesCacheName)
		c.opts.logger.Warn("series cache read failed",
			zap.String("key", key), zap.String("store", c.store.Name()), zap.Error(err))
		return nil, false
	}
	if !ok || !e.Fresh(c.opts.now(), c.ttl) {
		return nil, false
	}
	return cloneFloats(e.Value), true
}

// PurgeExpired drops entries that are past the TTL.
func (c *SeriesCache) PurgeExpired(ctx context.Context) (int, error) {
	return c.store.Purge(ctx, c.opts.now().Add(-c.ttl))
}
