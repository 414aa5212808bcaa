package collector

import (
	"context"

	"CryptoRadar/internal/model"
)

// Fetcher defines the interface for fetching exchange market data.
type Fetcher interface {
	// FetchTicker returns the 24h snapshot for one symbol.
	FetchTicker(ctx context.Context, symbol string) (model.TickerSnapshot, error)
	// FetchTickers returns 24h snapshots for every listed symbol.
	FetchTickers(ctx context.Context) ([]model.TickerSnapshot, error)
	// FetchCloses returns up to limit closing prices, oldest first.
	FetchCloses(ctx context.Context, symbol, interval string, limit int) ([]float64, error)
	Name() string
}
