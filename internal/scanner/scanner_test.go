package scanner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"CryptoRadar/internal/cache"
	"CryptoRadar/internal/collector"
	"CryptoRadar/internal/metrics"
	"CryptoRadar/internal/model"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func universe() []model.TickerSnapshot {
	return []model.TickerSnapshot{
		// 40 + 25 + 10 + 10
		{Symbol: "ROCKETUSDT", LastPrice: 0.5, PriceChangePercent: 26, QuoteVolume: 6_000_000, Count: 60_000},
		// 30 + 20 + 8 + 10 at best, never looked up
		{Symbol: "WARMUSDT", LastPrice: 2, PriceChangePercent: 16, QuoteVolume: 2_100_000, Count: 21_000},
		// 35 + 25 + 10 + 10
		{Symbol: "JUMPUSDT", LastPrice: 3, PriceChangePercent: 22, QuoteVolume: 9_000_000, Count: 80_000},
		{Symbol: "SLEEPYUSDT", LastPrice: 1, PriceChangePercent: 3, QuoteVolume: 9_000_000, Count: 90_000},
		{Symbol: "USDCUSDT", LastPrice: 1, PriceChangePercent: 0.1, QuoteVolume: 9_000_000, Count: 90_000},
		{Symbol: "ROCKETBTC", LastPrice: 0.00001, PriceChangePercent: 30, QuoteVolume: 9_000_000, Count: 90_000},
		// new-listing profile
		{Symbol: "FRESHUSDT", LastPrice: 0.01, PriceChangePercent: 12, QuoteVolume: 100_000, Count: 1_000},
	}
}

type fixture struct {
	fetcher *collector.MockFetcher
	scanner *Scanner
	clock   *clock
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, cfg Config, tickers ...model.TickerSnapshot) *fixture {
	t.Helper()
	if len(tickers) == 0 {
		tickers = universe()
	}
	f := collector.NewMockFetcher(tickers...)
	clk := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)
	series := cache.NewSeriesCache(cache.NewMemoryStore(), f, cache.SeriesTTL, cache.WithClock(clk.Now))
	s := New(f, series, cfg, cache.SnapshotTTL, zaptest.NewLogger(t), m, cache.WithClock(clk.Now))
	return &fixture{fetcher: f, scanner: s, clock: clk, metrics: m}
}

func symbols[T any](items []T, sym func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = sym(it)
	}
	return out
}

func explosionSymbol(e model.ExplosionScore) string { return e.Symbol }

func TestExplosions_RanksAndFilters(t *testing.T) {
	fx := newFixture(t, DefaultConfig())

	got, err := fx.scanner.Explosions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ROCKETUSDT", "JUMPUSDT"}, symbols(got, explosionSymbol))
	assert.Equal(t, 85, got[0].Score)
	assert.Equal(t, model.RecommendImmediateBuy, got[0].Recommendation)
	assert.Equal(t, 80, got[1].Score)

	// WARM tops out below 70 and the rest are flat or off-quote
	assert.Equal(t, int32(2), fx.fetcher.TickerCalls.Load())
	assert.Equal(t, int32(2), fx.fetcher.ClosesCalls.Load())
}

func TestExplosions_DegradedLookupsDoNotBlankList(t *testing.T) {
	fx := newFixture(t, DefaultConfig())
	fx.fetcher.ClosesErrs["ROCKETUSDT"] = &collector.UpstreamError{Kind: collector.ErrUpstreamTimeout}
	fx.fetcher.TickerErrs["JUMPUSDT"] = &collector.UpstreamError{Kind: collector.ErrUpstreamHTTP, Status: 500}

	got, err := fx.scanner.Explosions(context.Background())
	require.NoError(t, err)
	// ROCKET keeps 85 with a neutral RSI; JUMP loses its volume points (35 + 10)
	require.Equal(t, []string{"ROCKETUSDT"}, symbols(got, explosionSymbol))
	assert.Equal(t, 85, got[0].Score)
	assert.Equal(t, 50.0, got[0].RSI)

	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.ScanDegraded.WithLabelValues("explosions", "series")))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.ScanDegraded.WithLabelValues("explosions", "volume")))
}

func TestExplosions_MemoisedForSnapshotTTL(t *testing.T) {
	fx := newFixture(t, DefaultConfig())
	ctx := context.Background()

	_, err := fx.scanner.Explosions(ctx)
	require.NoError(t, err)
	fx.clock.Advance(cache.SnapshotTTL - time.Second)
	_, err = fx.scanner.Explosions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fx.fetcher.TickersCalls.Load())

	fx.clock.Advance(2 * time.Second)
	_, err = fx.scanner.Explosions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fx.fetcher.TickersCalls.Load())
	// closes are still inside the long series TTL
	assert.Equal(t, int32(2), fx.fetcher.ClosesCalls.Load())
}

func TestExplosions_UniverseFailurePropagatesAndIsNotCached(t *testing.T) {
	fx := newFixture(t, DefaultConfig())
	fx.fetcher.TickersErr = &collector.UpstreamError{Kind: collector.ErrUpstreamTimeout, Endpoint: "ticker/24hr"}

	_, err := fx.scanner.Explosions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, collector.ErrUpstreamTimeout)

	fx.fetcher.TickersErr = nil
	got, err := fx.scanner.Explosions(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

// thinMovers returns n pairs with big moves but too little volume to score 70.
func thinMovers(n int) []model.TickerSnapshot {
	out := make([]model.TickerSnapshot, n)
	for i := range out {
		out[i] = model.TickerSnapshot{
			Symbol:             fmt.Sprintf("THIN%03dUSDT", i),
			LastPrice:          0.1,
			PriceChangePercent: 50,
			QuoteVolume:        1_000,
			Count:              10,
		}
	}
	return out
}

func TestExplosions_ScorableSymbolBehindBiggerMovers(t *testing.T) {
	liquid := model.TickerSnapshot{Symbol: "REALUSDT", LastPrice: 4, PriceChangePercent: 24, QuoteVolume: 9_000_000, Count: 90_000}
	tickers := append(thinMovers(100), liquid)

	for _, limit := range []int{0, 1, 100} {
		t.Run(fmt.Sprintf("cap=%d", limit), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MaxCandidates = limit
			fx := newFixture(t, cfg, tickers...)

			got, err := fx.scanner.Explosions(context.Background())
			require.NoError(t, err)
			require.Equal(t, []string{"REALUSDT"}, symbols(got, explosionSymbol))
			assert.Equal(t, 80, got[0].Score)
			// thin movers cannot reach 70 and are never looked up
			assert.Equal(t, int32(1), fx.fetcher.TickerCalls.Load())
		})
	}
}

func TestExplosions_DepeggedStableIsScored(t *testing.T) {
	depeg := model.TickerSnapshot{Symbol: "USDCUSDT", LastPrice: 0.79, PriceChangePercent: 21, QuoteVolume: 9_000_000, Count: 90_000}
	fx := newFixture(t, DefaultConfig(), depeg)

	got, err := fx.scanner.Explosions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"USDCUSDT"}, symbols(got, explosionSymbol))
}

func TestExplosions_CapKeepsHighestCeilings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCandidates = 1
	fx := newFixture(t, cfg)

	got, err := fx.scanner.Explosions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ROCKETUSDT"}, symbols(got, explosionSymbol))
	assert.Equal(t, int32(1), fx.fetcher.TickerCalls.Load())
}

func TestRefreshExplosions_ReplacesMemoisedResult(t *testing.T) {
	fx := newFixture(t, DefaultConfig())
	ctx := context.Background()

	first, err := fx.scanner.Explosions(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	fx.fetcher.SetTicker(model.TickerSnapshot{Symbol: "JUMPUSDT", LastPrice: 3, PriceChangePercent: 1})
	refreshed, err := fx.scanner.RefreshExplosions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROCKETUSDT"}, symbols(refreshed, explosionSymbol))

	cached, err := fx.scanner.Explosions(ctx)
	require.NoError(t, err)
	assert.Equal(t, refreshed, cached)
	assert.Equal(t, int32(2), fx.fetcher.TickersCalls.Load())
}

func TestNewListings(t *testing.T) {
	fx := newFixture(t, DefaultConfig())

	got, err := fx.scanner.NewListings(context.Background())
	require.NoError(t, err)
	// high-activity pairs cap at 100 and tie-break by symbol; majors and non-USDT pairs are out
	assert.Equal(t,
		[]string{"JUMPUSDT", "ROCKETUSDT", "SLEEPYUSDT", "USDCUSDT", "WARMUSDT", "FRESHUSDT"},
		symbols(got, func(c model.NewListingCandidate) string { return c.Symbol }))
	assert.Equal(t, 100.0, got[0].Score)
	assert.InDelta(t, 79, got[5].Score, 1e-9)

	_, err = fx.scanner.NewListings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fx.fetcher.TickersCalls.Load())
	assert.Equal(t, int32(0), fx.fetcher.ClosesCalls.Load())
}

func TestPurge(t *testing.T) {
	fx := newFixture(t, DefaultConfig())
	_, err := fx.scanner.NewListings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, fx.scanner.Purge())
	fx.clock.Advance(cache.SnapshotTTL)
	assert.Equal(t, 1, fx.scanner.Purge())
}
