package strategy

import (
	"sort"

	"CryptoRadar/internal/calculator"
	"CryptoRadar/internal/model"
)

const (
	// RSIPeriod is the lookback used for every RSI the engine computes.
	RSIPeriod = 14
	// ExplosionThreshold is the minimum score reported as an explosion.
	ExplosionThreshold = 70
	// MaxScore caps every score.
	MaxScore = 100

	maxRSIBonus = 10
)

// VolumeData is the per-candidate 24h volume lookup. The zero value stands in
// when the lookup failed.
type VolumeData struct {
	Volume      float64
	QuoteVolume float64
	Count       int64
}

// VolumeFromTicker copies the volume fields of a snapshot.
func VolumeFromTicker(t model.TickerSnapshot) VolumeData {
	return VolumeData{Volume: t.Volume, QuoteVolume: t.QuoteVolume, Count: t.Count}
}

// ExplosionScore combines the 24h move, liquidity, activity and RSI momentum of a
// ticker into a 0~100 score.
func ExplosionScore(t model.TickerSnapshot, v VolumeData, closes []float64) model.ExplosionScore {
	rsi := calculator.RSI(closes, RSIPeriod)
	score := scorePriceChange(t.PriceChangePercent) +
		scoreQuoteVolume(v.QuoteVolume) +
		scoreTradeCount(v.Count) +
		scoreRSI(rsi)
	score = clampScore(score)

	return model.ExplosionScore{
		Symbol:             t.Symbol,
		Score:              score,
		PriceChangePercent: t.PriceChangePercent,
		LastPrice:          t.LastPrice,
		QuoteVolume:        v.QuoteVolume,
		Count:              v.Count,
		RSI:                rsi,
		Recommendation:     Classify(score),
	}
}

// ExplosionCeiling is the best score a ticker can reach from the volume and trade count it
// already reports, assuming the full RSI bonus.
func ExplosionCeiling(t model.TickerSnapshot) int {
	return clampScore(scorePriceChange(t.PriceChangePercent) +
		scoreQuoteVolume(t.QuoteVolume) +
		scoreTradeCount(t.Count) +
		maxRSIBonus)
}

// CanExplode reports whether a ticker can still reach ExplosionThreshold.
func CanExplode(t model.TickerSnapshot) bool {
	return IsExplosion(ExplosionCeiling(t))
}

// IsExplosion reports whether a score qualifies as an explosion.
func IsExplosion(score int) bool {
	return score >= ExplosionThreshold
}

// RankExplosions keeps explosions only and sorts them by score, highest first.
// Ties are broken by symbol so the ranking is deterministic.
func RankExplosions(scores []model.ExplosionScore) []model.ExplosionScore {
	out := make([]model.ExplosionScore, 0, len(scores))
	for _, s := range scores {
		if IsExplosion(s.Score) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// scorePriceChange scores the 24h percentage change. Max 40.
func scorePriceChange(pct float64) int {
	switch {
	case pct > 25:
		return 40
	case pct > 20:
		return 35
	case pct > 15:
		return 30
	case pct > 10:
		return 20
	case pct > 5:
		return 10
	default:
		return 0
	}
}

// scoreQuoteVolume scores 24h quote-asset volume. Max 25.
func scoreQuoteVolume(qv float64) int {
	switch {
	case qv > 5_000_000:
		return 25
	case qv > 2_000_000:
		return 20
	case qv > 1_000_000:
		return 15
	case qv > 500_000:
		return 10
	case qv > 100_000:
		return 5
	default:
		return 0
	}
}

// scoreTradeCount scores the number of 24h trades. Max 10.
func scoreTradeCount(n int64) int {
	switch {
	case n > 50_000:
		return 10
	case n > 20_000:
		return 8
	case n > 10_000:
		return 6
	case n > 5_000:
		return 4
	case n > 1_000:
		return 2
	default:
		return 0
	}
}

// scoreRSI rewards healthy momentum; overbought gets partial credit, exactly 70 and
// oversold get none.
func scoreRSI(rsi float64) int {
	switch {
	case rsi > 30 && rsi < 70:
		return 10
	case rsi > 70:
		return 5
	default:
		return 0
	}
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
