package model

// TickerSnapshot is the 24h rolling summary of one trading pair.
type TickerSnapshot struct {
	Symbol             string
	LastPrice          float64
	PriceChangePercent float64
	Volume             float64
	QuoteVolume        float64
	Count              int64
}
