package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"CryptoRadar/internal/calculator"
	"CryptoRadar/internal/model"
	"CryptoRadar/internal/strategy"
)

const (
	// DefaultInterval and DefaultLimit select the kline window used for per-symbol analysis.
	DefaultInterval = "1h"
	DefaultLimit    = 50
)

// SeriesSource returns closing prices, usually through the series cache.
type SeriesSource interface {
	GetOrFetch(ctx context.Context, symbol, interval string, limit int) ([]float64, error)
}

// Collector orchestrates data fetching and indicator computation for one symbol.
type Collector struct {
	Fetcher  Fetcher
	Series   SeriesSource
	Interval string
	Limit    int

	logger *zap.Logger
}

// NewCollector creates a new Collector with the default kline window.
func NewCollector(fetcher Fetcher, series SeriesSource, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Fetcher:  fetcher,
		Series:   series,
		Interval: DefaultInterval,
		Limit:    DefaultLimit,
		logger:   logger,
	}
}

// snapshot fetches the ticker and close series of an explicitly requested symbol.
// Both are primary lookups, so failures propagate.
func (c *Collector) snapshot(ctx context.Context, symbol string) (model.TickerSnapshot, []float64, error) {
	t, err := c.Fetcher.FetchTicker(ctx, symbol)
	if err != nil {
		return model.TickerSnapshot{}, nil, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}
	closes, err := c.Series.GetOrFetch(ctx, symbol, c.Interval, c.Limit)
	if err != nil {
		return model.TickerSnapshot{}, nil, fmt.Errorf("fetch closes %s: %w", symbol, err)
	}
	if len(closes) < calculator.MACDMinBars {
		c.logger.Debug("short close series, indicators use neutral defaults",
			zap.String("symbol", symbol), zap.Int("closes", len(closes)))
	}
	return t, closes, nil
}

// Analyze computes the indicator readout for symbol.
func (c *Collector) Analyze(ctx context.Context, symbol string) (model.Analysis, error) {
	t, closes, err := c.snapshot(ctx, symbol)
	if err != nil {
		return model.Analysis{}, err
	}
	rsi := calculator.RSI(closes, strategy.RSIPeriod)
	return model.Analysis{
		Symbol:     symbol,
		Price:      t.LastPrice,
		RSI:        rsi,
		MACD:       calculator.MACD(closes),
		Volatility: calculator.Volatility(closes),
		EMA12:      calculator.EMA(closes, 12),
		EMA26:      calculator.EMA(closes, 26),
		Trend:      strategy.TrendFromRSI(rsi),
	}, nil
}

// Recommend scores symbol and derives a trade plan from its ticker and closes.
func (c *Collector) Recommend(ctx context.Context, symbol string) (model.TradePlan, error) {
	t, closes, err := c.snapshot(ctx, symbol)
	if err != nil {
		return model.TradePlan{}, err
	}
	score := strategy.ExplosionScore(t, strategy.VolumeFromTicker(t), closes)
	plan := strategy.BuildTradePlan(t, score, calculator.Volatility(closes), closes)
	c.logger.Debug("recommendation",
		zap.String("symbol", symbol),
		zap.Int("score", plan.Score),
		zap.String("recommendation", string(plan.Recommendation)))
	return plan, nil
}
