package model

// MACD holds the MACD line, its 9-period signal line and the histogram.
type MACD struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// Trend is the RSI-based market condition label.
type Trend string

const (
	TrendOverbought Trend = "Overbought"
	TrendOversold   Trend = "Oversold"
	TrendNeutral    Trend = "Neutral"
)

// Analysis holds all computed technical indicators for one symbol.
type Analysis struct {
	Symbol     string
	Price      float64
	RSI        float64
	MACD       MACD
	Volatility float64 // stddev of returns, in percent
	EMA12      float64
	EMA26      float64
	Trend      Trend
}
