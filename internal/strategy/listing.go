package strategy

import (
	"math"
	"sort"
	"strings"

	"CryptoRadar/internal/model"
)

// QuoteAsset is the reference stablecoin every scanned pair must quote in.
const QuoteAsset = "USDT"

// New-listing profile bounds. All comparisons are strict.
const (
	listingMinQuoteVolume = 50_000
	listingMaxQuoteVolume = 10_000_000
	listingMinTrades      = 500
	listingMaxTrades      = 100_000
	listingMinChange      = -50
	listingMaxChange      = 200
)

// Majors is the curated set of well-known pairs excluded from the new-listing scan.
// Lookups are exact on the upstream symbol format.
var Majors = map[string]struct{}{
	"BTCUSDT": {}, "ETHUSDT": {}, "BNBUSDT": {}, "XRPUSDT": {}, "ADAUSDT": {}, "SOLUSDT": {},
	"DOTUSDT": {}, "LINKUSDT": {}, "LTCUSDT": {}, "BCHUSDT": {}, "UNIUSDT": {}, "MATICUSDT": {},
	"AVAXUSDT": {}, "ATOMUSDT": {}, "FTMUSDT": {}, "NEARUSDT": {}, "ALGOUSDT": {}, "XLMUSDT": {},
	"VETUSDT": {}, "ICPUSDT": {}, "FILUSDT": {}, "TRXUSDT": {}, "ETCUSDT": {}, "THETAUSDT": {},
}

// IsMajor reports whether symbol is in the curated majors set.
func IsMajor(symbol string) bool {
	_, ok := Majors[symbol]
	return ok
}

// QuotesInReference reports whether symbol is a pair against QuoteAsset.
func QuotesInReference(symbol string) bool {
	return len(symbol) > len(QuoteAsset) && strings.HasSuffix(symbol, QuoteAsset)
}

// IsNewListingCandidate reports whether a ticker matches the recently-listed profile.
// Extreme values are treated as data errors or delisting candidates.
func IsNewListingCandidate(t model.TickerSnapshot) bool {
	if !QuotesInReference(t.Symbol) || IsMajor(t.Symbol) {
		return false
	}
	return t.QuoteVolume > listingMinQuoteVolume && t.QuoteVolume < listingMaxQuoteVolume &&
		t.Count > listingMinTrades && t.Count < listingMaxTrades &&
		t.PriceChangePercent > listingMinChange && t.PriceChangePercent < listingMaxChange &&
		t.LastPrice > 0
}

// NewListingScore rewards liquidity and upward momentum. Capped at 100.
func NewListingScore(t model.TickerSnapshot) float64 {
	score := float64(t.Count)/1000*20 +
		t.QuoteVolume/100_000*15 +
		math.Max(0, t.PriceChangePercent)*2
	if t.PriceChangePercent > 10 {
		score += 20
	}
	return math.Min(MaxScore, score)
}

// RankNewListings filters tickers to new-listing candidates and sorts them by score, highest first.
func RankNewListings(tickers []model.TickerSnapshot) []model.NewListingCandidate {
	out := make([]model.NewListingCandidate, 0)
	for _, t := range tickers {
		if !IsNewListingCandidate(t) {
			continue
		}
		out = append(out, model.NewListingCandidate{
			Symbol:      t.Symbol,
			Price:       t.LastPrice,
			Volume:      t.QuoteVolume,
			Trades:      t.Count,
			PriceChange: t.PriceChangePercent,
			Score:       NewListingScore(t),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
