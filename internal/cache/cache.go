// Package cache holds the time-windowed stores that bound how often exchange data is refetched.
//
// Two caches exist: a short-TTL TTLCache for snapshot-style data (scan results) and a
// long-TTL SeriesCache for historical closes, backed by a pluggable Store.
// Expiry is lazy: an entry older than the TTL is treated as absent on read.
package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"CryptoRadar/internal/metrics"
)

// Default freshness windows.
const (
	SnapshotTTL = 180 * time.Second
	SeriesTTL   = time.Hour
)

// Entry is one cached closing-price sequence and the time it was stored.
type Entry struct {
	Value    []float64 `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Fresh reports whether the entry is still within ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Store persists series entries. Writes are insert-or-replace per key.
type Store interface {
	// Get returns the entry under key; ok is false when absent.
	Get(ctx context.Context, key string) (e Entry, ok bool, err error)
	Set(ctx context.Context, key string, e Entry) error
	// Purge drops entries stored before olderThan and returns how many were removed.
	Purge(ctx context.Context, olderThan time.Time) (int, error)
	Name() string
	Close() error
}

// SeriesKey renders the canonical cache key for a kline request, e.g. "BTCUSDT|1h|50".
func SeriesKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("%s|%s|%d", symbol, interval, limit)
}

type options struct {
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a cache.
type Option func(*options)

// WithClock replaces time.Now, mainly for TTL tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
