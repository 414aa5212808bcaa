package model

// Recommendation is the score-based action label.
type Recommendation string

const (
	RecommendAvoid        Recommendation = "AVOID"
	RecommendMonitor      Recommendation = "MONITOR"
	RecommendWatch        Recommendation = "WATCH"
	RecommendStrongBuy    Recommendation = "STRONG_BUY"
	RecommendImmediateBuy Recommendation = "IMMEDIATE_BUY"
)

// ExplosionScore is the scored result for one ticker.
type ExplosionScore struct {
	Symbol             string
	Score              int // 0 ~ 100
	PriceChangePercent float64
	LastPrice          float64
	QuoteVolume        float64
	Count              int64
	RSI                float64
	Recommendation     Recommendation
}

// NewListingCandidate is a recently listed token matching the liquidity/volatility profile.
type NewListingCandidate struct {
	Symbol      string
	Price       float64
	Volume      float64 // quote volume
	Trades      int64
	PriceChange float64
	Score       float64 // 0 ~ 100
}

// TradePlan is the richer recommendation readout for a single symbol.
type TradePlan struct {
	Symbol         string
	Score          int
	Recommendation Recommendation
	BuyPrice       float64
	SellTarget     float64
	StopLoss       float64
	Confidence     float64 // 0 ~ 100
	Timeframe      string
}
