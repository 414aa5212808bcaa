// Package scanner runs the market-wide explosion and new-listing scans.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"CryptoRadar/internal/cache"
	"CryptoRadar/internal/collector"
	"CryptoRadar/internal/metrics"
	"CryptoRadar/internal/model"
	"CryptoRadar/internal/strategy"
)

const (
	scanExplosions  = "explosions"
	scanNewListings = "new_listings"
)

// Config tunes the explosion scan.
type Config struct {
	MinChangePercent float64 // prefilter floor on the 24h change
	MaxCandidates    int     // optional hard cap, 0 scans every candidate that can still explode
	Workers          int     // concurrent per-candidate lookups
	Interval         string
	Limit            int
}

// DefaultConfig mirrors the defaults in configs/config.yaml.
func DefaultConfig() Config {
	return Config{
		MinChangePercent: 15,
		MaxCandidates:    0,
		Workers:          8,
		Interval:         collector.DefaultInterval,
		Limit:            collector.DefaultLimit,
	}
}

// Scanner ranks the ticker universe. Completed scans are memoised for the snapshot TTL.
type Scanner struct {
	fetcher collector.Fetcher
	series  collector.SeriesSource
	cfg     Config

	explosions *cache.TTLCache[[]model.ExplosionScore]
	listings   *cache.TTLCache[[]model.NewListingCandidate]

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a Scanner. opts are forwarded to the result caches.
func New(fetcher collector.Fetcher, series collector.SeriesSource, cfg Config, ttl time.Duration,
	logger *zap.Logger, m *metrics.Metrics, opts ...cache.Option) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Interval == "" {
		cfg.Interval = collector.DefaultInterval
	}
	if cfg.Limit <= 0 {
		cfg.Limit = collector.DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append(opts, cache.WithMetrics(m), cache.WithLogger(logger))
	return &Scanner{
		fetcher:    fetcher,
		series:     series,
		cfg:        cfg,
		explosions: cache.NewTTLCache[[]model.ExplosionScore](scanExplosions, ttl, opts...),
		listings:   cache.NewTTLCache[[]model.NewListingCandidate](scanNewListings, ttl, opts...),
		logger:     logger,
		metrics:    m,
	}
}

// Explosions returns the ranked explosions, reusing a scan younger than the snapshot TTL.
func (s *Scanner) Explosions(ctx context.Context) ([]model.ExplosionScore, error) {
	return s.explosions.GetOrLoad(ctx, scanExplosions, s.scanExplosions)
}

// NewListings returns the ranked new-listing candidates, reusing a recent scan.
func (s *Scanner) NewListings(ctx context.Context) ([]model.NewListingCandidate, error) {
	return s.listings.GetOrLoad(ctx, scanNewListings, s.scanNewListings)
}

// RefreshExplosions runs a fresh explosion scan and replaces the memoised result.
func (s *Scanner) RefreshExplosions(ctx context.Context) ([]model.ExplosionScore, error) {
	out, err := s.scanExplosions(ctx)
	if err != nil {
		return nil, err
	}
	s.explosions.Set(scanExplosions, out)
	return out, nil
}

// Purge drops expired scan results.
func (s *Scanner) Purge() int {
	return s.explosions.Purge() + s.listings.Purge()
}

func (s *Scanner) scanExplosions(ctx context.Context) ([]model.ExplosionScore, error) {
	start := time.Now()
	universe, err := s.fetcher.FetchTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker universe: %w", err)
	}
	candidates := s.prefilter(universe)

	scores := make([]model.ExplosionScore, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, t := range candidates {
		i, t := i, t
		g.Go(func() error {
			scores[i] = s.scoreCandidate(gctx, t)
			return nil
		})
	}
	_ = g.Wait() // candidates degrade instead of failing

	ranked := strategy.RankExplosions(scores)
	s.metrics.ObserveScan(scanExplosions, time.Since(start), len(candidates), len(ranked))
	s.logger.Info("explosion scan complete",
		zap.Int("universe", len(universe)),
		zap.Int("candidates", len(candidates)),
		zap.Int("explosions", len(ranked)),
		zap.Duration("took", time.Since(start)))
	return ranked, nil
}

// scoreCandidate runs the secondary lookups for one ticker. Each failure falls back to
// an empty default so one bad symbol never blanks the ranked list.
func (s *Scanner) scoreCandidate(ctx context.Context, t model.TickerSnapshot) model.ExplosionScore {
	var volume strategy.VolumeData
	if vt, err := s.fetcher.FetchTicker(ctx, t.Symbol); err != nil {
		s.degraded(t.Symbol, "volume", err)
	} else {
		volume = strategy.VolumeFromTicker(vt)
	}

	closes, err := s.series.GetOrFetch(ctx, t.Symbol, s.cfg.Interval, s.cfg.Limit)
	if err != nil {
		s.degraded(t.Symbol, "series", err)
		closes = nil
	}
	return strategy.ExplosionScore(t, volume, closes)
}

func (s *Scanner) degraded(symbol, lookup string, err error) {
	s.metrics.Degraded(scanExplosions, lookup)
	s.logger.Warn("candidate lookup failed, using defaults",
		zap.String("symbol", symbol),
		zap.String("lookup", lookup),
		zap.String("outcome", collector.Outcome(err)),
		zap.Error(err))
}

// prefilter drops reference-quoted pairs that cannot reach the explosion threshold even
// with a full RSI bonus, so it never removes a symbol the full scan would report. The
// optional cap keeps the highest ceilings first.
func (s *Scanner) prefilter(universe []model.TickerSnapshot) []model.TickerSnapshot {
	out := make([]model.TickerSnapshot, 0, len(universe)/8)
	for _, t := range universe {
		if !strategy.QuotesInReference(t.Symbol) || t.PriceChangePercent < s.cfg.MinChangePercent {
			continue
		}
		if !strategy.CanExplode(t) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := strategy.ExplosionCeiling(out[i]), strategy.ExplosionCeiling(out[j])
		if ci != cj {
			return ci > cj
		}
		if out[i].PriceChangePercent != out[j].PriceChangePercent {
			return out[i].PriceChangePercent > out[j].PriceChangePercent
		}
		return out[i].Symbol < out[j].Symbol
	})
	if s.cfg.MaxCandidates > 0 && len(out) > s.cfg.MaxCandidates {
		s.logger.Warn("candidate cap reached, lower ceilings skipped",
			zap.Int("candidates", len(out)), zap.Int("cap", s.cfg.MaxCandidates))
		out = out[:s.cfg.MaxCandidates]
	}
	return out
}

func (s *Scanner) scanNewListings(ctx context.Context) ([]model.NewListingCandidate, error) {
	start := time.Now()
	universe, err := s.fetcher.FetchTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker universe: %w", err)
	}
	ranked := strategy.RankNewListings(universe)
	s.metrics.ObserveScan(scanNewListings, time.Since(start), len(universe), len(ranked))
	s.logger.Info("new listing scan complete",
		zap.Int("universe", len(universe)),
		zap.Int("candidates", len(ranked)))
	return ranked, nil
}
