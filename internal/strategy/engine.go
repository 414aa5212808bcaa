package strategy

import (
	"math"

	"CryptoRadar/internal/calculator"
	"CryptoRadar/internal/model"
)

// Tier couples a recommendation with its plan parameters.
type Tier struct {
	Recommendation model.Recommendation
	Timeframe      string
	// TargetMult and StopMult scale volatility into the sell target and stop distances.
	TargetMult float64
	StopMult   float64
}

// Tiers defines the 5-level recommendation mapping, highest first.
var Tiers = []struct {
	MinScore int
	Tier     Tier
}{
	{85, Tier{Recommendation: model.RecommendImmediateBuy, Timeframe: "1-4h", TargetMult: 3.0, StopMult: 1.5}},
	{70, Tier{Recommendation: model.RecommendStrongBuy, Timeframe: "4-12h", TargetMult: 2.5, StopMult: 1.5}},
	{50, Tier{Recommendation: model.RecommendWatch, Timeframe: "12-24h", TargetMult: 2.0, StopMult: 1.2}},
	{35, Tier{Recommendation: model.RecommendMonitor, Timeframe: "1-3d", TargetMult: 1.5, StopMult: 1.0}},
}

// DefaultTier is the lowest tier for scores < 35.
var DefaultTier = Tier{Recommendation: model.RecommendAvoid, Timeframe: "n/a", TargetMult: 1.0, StopMult: 1.0}

// mapTier maps a score to its Tier.
func mapTier(score int) Tier {
	for _, t := range Tiers {
		if score >= t.MinScore {
			return t.Tier
		}
	}
	return DefaultTier
}

// Classify maps a 0~100 score to a recommendation.
func Classify(score int) model.Recommendation {
	return mapTier(score).Recommendation
}

// TrendFromRSI labels the market condition from an RSI reading.
func TrendFromRSI(rsi float64) model.Trend {
	switch {
	case rsi > 70:
		return model.TrendOverbought
	case rsi < 30:
		return model.TrendOversold
	default:
		return model.TrendNeutral
	}
}

// Plan bounds, in percent of the buy price.
const (
	defaultVolatility = 2.0
	minTargetPct      = 3.0
	maxTargetPct      = 30.0
	minStopPct        = 2.0
	maxStopPct        = 15.0
	rangeLookback     = 24
	trendLookback     = 20
	supportBuffer     = 0.995
)

// BuildTradePlan turns a scored ticker into buy/sell levels. Sell target and stop
// distances scale with volatility; the stop is raised to just below recent support
// when that support sits inside the volatility band.
func BuildTradePlan(t model.TickerSnapshot, s model.ExplosionScore, volatility float64, closes []float64) model.TradePlan {
	tier := mapTier(s.Score)
	price := t.LastPrice

	vol := volatility
	if vol <= 0 {
		vol = defaultVolatility
	}
	targetPct := bound(vol*tier.TargetMult, minTargetPct, maxTargetPct)
	stopPct := bound(vol*tier.StopMult, minStopPct, maxStopPct)

	plan := model.TradePlan{
		Symbol:         t.Symbol,
		Score:          s.Score,
		Recommendation: tier.Recommendation,
		BuyPrice:       price,
		SellTarget:     price * (1 + targetPct/100),
		StopLoss:       price * (1 - stopPct/100),
		Timeframe:      tier.Timeframe,
	}

	high, low, err := calculator.PriceRange(closes, rangeLookback)
	if err == nil && price > 0 {
		if support := low * supportBuffer; support > plan.StopLoss && support < price {
			plan.StopLoss = support
		}
	}
	plan.Confidence = confidence(s, volatility, price, closes, high, low, err == nil)
	return plan
}

// confidence starts from the score and discounts stretched RSI, high volatility,
// entries at the top of the recent range and entries below the 20-bar SMA.
func confidence(s model.ExplosionScore, volatility, price float64, closes []float64, high, low float64, hasRange bool) float64 {
	c := float64(s.Score)
	switch TrendFromRSI(s.RSI) {
	case model.TrendOverbought:
		c *= 0.8
	case model.TrendOversold:
		c *= 0.9
	}
	if volatility > 8 {
		c *= 0.85
	}
	if hasRange {
		if pos, err := calculator.RangePosition(price, high, low); err == nil && pos > 0.9 {
			c *= 0.9
		}
	}
	if sma, err := calculator.SMA(closes, trendLookback); err == nil && price < sma {
		c *= 0.9
	}
	return math.Round(bound(c, 0, 100))
}

func bound(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
