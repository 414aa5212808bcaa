package strategy

import (
	"math"
	"testing"

	"CryptoRadar/internal/model"
)

func TestExplosionScore_ImmediateBuy(t *testing.T) {
	tk := model.TickerSnapshot{Symbol: "PEPEUSDT", LastPrice: 0.0000123, PriceChangePercent: 26}
	v := VolumeData{QuoteVolume: 6_000_000, Count: 60_000}

	// fewer closes than RSIPeriod+1 keeps RSI neutral
	got := ExplosionScore(tk, v, []float64{1, 2, 3})
	if got.Score != 85 {
		t.Fatalf("expected score 85, got %d", got.Score)
	}
	if got.Recommendation != model.RecommendImmediateBuy {
		t.Errorf("expected IMMEDIATE_BUY, got %s", got.Recommendation)
	}
	if got.RSI != 50 {
		t.Errorf("expected neutral RSI, got %.2f", got.RSI)
	}
	if !IsExplosion(got.Score) {
		t.Error("expected explosion")
	}
}

func TestExplosionScore_DegradedVolumeStillScores(t *testing.T) {
	tk := model.TickerSnapshot{Symbol: "ABCUSDT", PriceChangePercent: 30}
	got := ExplosionScore(tk, VolumeData{}, nil)
	if got.Score != 50 {
		t.Fatalf("expected 40+10 with zero volume data, got %d", got.Score)
	}
	if got.QuoteVolume != 0 || got.Count != 0 {
		t.Error("expected zero volume fields")
	}
}

func TestScoreBands(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"change 25.01", scorePriceChange(25.01), 40},
		{"change 25", scorePriceChange(25), 35},
		{"change 20", scorePriceChange(20), 30},
		{"change 15", scorePriceChange(15), 20},
		{"change 10", scorePriceChange(10), 10},
		{"change 5", scorePriceChange(5), 0},
		{"change -40", scorePriceChange(-40), 0},
		{"qv 5M+", scoreQuoteVolume(5_000_001), 25},
		{"qv 5M", scoreQuoteVolume(5_000_000), 20},
		{"qv 1.5M", scoreQuoteVolume(1_500_000), 15},
		{"qv 600k", scoreQuoteVolume(600_000), 10},
		{"qv 100001", scoreQuoteVolume(100_001), 5},
		{"qv 100k", scoreQuoteVolume(100_000), 0},
		{"trades 50001", scoreTradeCount(50_001), 10},
		{"trades 20001", scoreTradeCount(20_001), 8},
		{"trades 10001", scoreTradeCount(10_001), 6},
		{"trades 5001", scoreTradeCount(5_001), 4},
		{"trades 1001", scoreTradeCount(1_001), 2},
		{"trades 1000", scoreTradeCount(1_000), 0},
		{"rsi 50", scoreRSI(50), 10},
		{"rsi 30", scoreRSI(30), 0},
		{"rsi 70", scoreRSI(70), 0},
		{"rsi 80", scoreRSI(80), 5},
		{"rsi 10", scoreRSI(10), 0},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, tt.got)
		}
	}
}

func TestExplosionScore_MonotonicInInputs(t *testing.T) {
	base := model.TickerSnapshot{Symbol: "XUSDT"}
	prev := -1
	for pct := -10.0; pct <= 40; pct += 0.5 {
		base.PriceChangePercent = pct
		s := ExplosionScore(base, VolumeData{QuoteVolume: 1_200_000, Count: 7_000}, nil).Score
		if s < prev {
			t.Fatalf("score dropped from %d to %d at change %.1f", prev, s, pct)
		}
		if s < 0 || s > MaxScore {
			t.Fatalf("score %d out of range", s)
		}
		prev = s
	}

	prev = -1
	for qv := 0.0; qv <= 8_000_000; qv += 250_000 {
		s := ExplosionScore(base, VolumeData{QuoteVolume: qv}, nil).Score
		if s < prev {
			t.Fatalf("score dropped from %d to %d at quote volume %.0f", prev, s, qv)
		}
		prev = s
	}
}

func TestExplosionCeiling(t *testing.T) {
	tests := []struct {
		name   string
		ticker model.TickerSnapshot
		want   int
		can    bool
	}{
		{"liquid mover", model.TickerSnapshot{PriceChangePercent: 24, QuoteVolume: 9_000_000, Count: 90_000}, 80, true},
		{"thin mover", model.TickerSnapshot{PriceChangePercent: 50, QuoteVolume: 1_000, Count: 10}, 50, false},
		{"just short", model.TickerSnapshot{PriceChangePercent: 16, QuoteVolume: 2_100_000, Count: 21_000}, 68, false},
		{"liquid but quiet", model.TickerSnapshot{PriceChangePercent: 16, QuoteVolume: 6_000_000, Count: 1_500}, 67, false},
		{"flat ceiling", model.TickerSnapshot{PriceChangePercent: 15, QuoteVolume: 9_000_000, Count: 90_000}, 65, false},
		{"depegged stable", model.TickerSnapshot{Symbol: "USDCUSDT", PriceChangePercent: 21, QuoteVolume: 9_000_000, Count: 90_000}, 80, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExplosionCeiling(tt.ticker); got != tt.want {
				t.Errorf("ExplosionCeiling = %d, want %d", got, tt.want)
			}
			if got := CanExplode(tt.ticker); got != tt.can {
				t.Errorf("CanExplode = %v, want %v", got, tt.can)
			}
		})
	}
}

func TestExplosionCeiling_BoundsScore(t *testing.T) {
	rising := make([]float64, 30)
	choppy := make([]float64, 30)
	for i := range rising {
		rising[i] = 1 + float64(i)*0.1
		choppy[i] = 1 + 0.05*float64(i%3)
	}
	for _, pct := range []float64{5, 15.5, 21, 30} {
		for _, qv := range []float64{0, 200_000, 3_000_000, 8_000_000} {
			for _, n := range []int64{0, 6_000, 60_000} {
				tk := model.TickerSnapshot{PriceChangePercent: pct, QuoteVolume: qv, Count: n}
				ceiling := ExplosionCeiling(tk)
				for _, closes := range [][]float64{nil, rising, choppy} {
					got := ExplosionScore(tk, VolumeFromTicker(tk), closes).Score
					if got > ceiling {
						t.Fatalf("score %d above ceiling %d for %+v", got, ceiling, tk)
					}
				}
			}
		}
	}
}

func TestClassify_TierBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  model.Recommendation
	}{
		{100, model.RecommendImmediateBuy},
		{85, model.RecommendImmediateBuy},
		{84, model.RecommendStrongBuy},
		{70, model.RecommendStrongBuy},
		{69, model.RecommendWatch},
		{50, model.RecommendWatch},
		{49, model.RecommendMonitor},
		{35, model.RecommendMonitor},
		{34, model.RecommendAvoid},
		{0, model.RecommendAvoid},
	}
	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%d): expected %s, got %s", tt.score, tt.want, got)
		}
	}
}

func TestTrendFromRSI(t *testing.T) {
	tests := []struct {
		rsi  float64
		want model.Trend
	}{
		{70.01, model.TrendOverbought},
		{70, model.TrendNeutral},
		{50, model.TrendNeutral},
		{30, model.TrendNeutral},
		{29.99, model.TrendOversold},
	}
	for _, tt := range tests {
		if got := TrendFromRSI(tt.rsi); got != tt.want {
			t.Errorf("TrendFromRSI(%.2f): expected %s, got %s", tt.rsi, tt.want, got)
		}
	}
}

func TestRankExplosions(t *testing.T) {
	in := []model.ExplosionScore{
		{Symbol: "AUSDT", Score: 72},
		{Symbol: "BUSDT", Score: 90},
		{Symbol: "CUSDT", Score: 69},
		{Symbol: "DUSDT", Score: 72},
		{Symbol: "EUSDT", Score: 70},
	}
	got := RankExplosions(in)
	want := []string{"BUSDT", "AUSDT", "DUSDT", "EUSDT"}
	if len(got) != len(want) {
		t.Fatalf("expected %d explosions, got %d", len(want), len(got))
	}
	for i, sym := range want {
		if got[i].Symbol != sym {
			t.Errorf("rank %d: expected %s, got %s", i, sym, got[i].Symbol)
		}
	}
}

func listingTicker(symbol string) model.TickerSnapshot {
	return model.TickerSnapshot{
		Symbol:             symbol,
		LastPrice:          0.42,
		PriceChangePercent: 5,
		QuoteVolume:        100_000,
		Count:              1_000,
	}
}

func TestIsNewListingCandidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.TickerSnapshot)
		want   bool
	}{
		{"profile match", func(*model.TickerSnapshot) {}, true},
		{"major excluded", func(tk *model.TickerSnapshot) { tk.Symbol = "SOLUSDT" }, false},
		{"non USDT quote", func(tk *model.TickerSnapshot) { tk.Symbol = "NEWBTC" }, false},
		{"bare quote asset", func(tk *model.TickerSnapshot) { tk.Symbol = "USDT" }, false},
		{"quote volume at floor", func(tk *model.TickerSnapshot) { tk.QuoteVolume = 50_000 }, false},
		{"quote volume at ceiling", func(tk *model.TickerSnapshot) { tk.QuoteVolume = 10_000_000 }, false},
		{"trades at floor", func(tk *model.TickerSnapshot) { tk.Count = 500 }, false},
		{"trades at ceiling", func(tk *model.TickerSnapshot) { tk.Count = 100_000 }, false},
		{"crash", func(tk *model.TickerSnapshot) { tk.PriceChangePercent = -50 }, false},
		{"data error spike", func(tk *model.TickerSnapshot) { tk.PriceChangePercent = 200 }, false},
		{"zero price", func(tk *model.TickerSnapshot) { tk.LastPrice = 0 }, false},
	}
	for _, tt := range tests {
		tk := listingTicker("NEWUSDT")
		tt.mutate(&tk)
		if got := IsNewListingCandidate(tk); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestNewListingScore(t *testing.T) {
	tk := listingTicker("NEWUSDT")
	if got := NewListingScore(tk); math.Abs(got-45) > 1e-9 {
		t.Errorf("expected 45, got %.4f", got)
	}

	tk.PriceChangePercent = 12
	if got := NewListingScore(tk); math.Abs(got-79) > 1e-9 {
		t.Errorf("expected 79 with momentum bonus, got %.4f", got)
	}

	tk.Count = 90_000
	if got := NewListingScore(tk); got != 100 {
		t.Errorf("expected cap at 100, got %.4f", got)
	}

	tk = listingTicker("NEWUSDT")
	tk.PriceChangePercent = -20
	if got := NewListingScore(tk); math.Abs(got-35) > 1e-9 {
		t.Errorf("expected negative change to add nothing, got %.4f", got)
	}
}

func TestRankNewListings(t *testing.T) {
	hot := listingTicker("HOTUSDT")
	hot.PriceChangePercent = 12
	cold := listingTicker("COLDUSDT")
	major := listingTicker("ETHUSDT")

	got := RankNewListings([]model.TickerSnapshot{cold, major, hot})
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Symbol != "HOTUSDT" || got[1].Symbol != "COLDUSDT" {
		t.Errorf("unexpected order: %s, %s", got[0].Symbol, got[1].Symbol)
	}
	for _, c := range got {
		if c.Score < 0 || c.Score > 100 {
			t.Errorf("%s: score %.2f out of range", c.Symbol, c.Score)
		}
	}
	if empty := RankNewListings(nil); empty == nil || len(empty) != 0 {
		t.Error("expected a non-nil empty list")
	}
}

func TestBuildTradePlan_VolatilityBands(t *testing.T) {
	tk := model.TickerSnapshot{Symbol: "XUSDT", LastPrice: 100}
	s := model.ExplosionScore{Symbol: "XUSDT", Score: 85, RSI: 50}

	plan := BuildTradePlan(tk, s, 2, nil)
	if plan.Recommendation != model.RecommendImmediateBuy || plan.Timeframe != "1-4h" {
		t.Fatalf("unexpected tier: %s %s", plan.Recommendation, plan.Timeframe)
	}
	if plan.BuyPrice != 100 {
		t.Errorf("expected buy at last price, got %.4f", plan.BuyPrice)
	}
	if math.Abs(plan.SellTarget-106) > 1e-9 {
		t.Errorf("expected sell target 106, got %.4f", plan.SellTarget)
	}
	if math.Abs(plan.StopLoss-97) > 1e-9 {
		t.Errorf("expected stop 97, got %.4f", plan.StopLoss)
	}
	if plan.Confidence != 85 {
		t.Errorf("expected confidence 85, got %.0f", plan.Confidence)
	}

	// zero volatility falls back to the default band
	if flat := BuildTradePlan(tk, s, 0, nil); math.Abs(flat.SellTarget-106) > 1e-9 {
		t.Errorf("expected default volatility band, got %.4f", flat.SellTarget)
	}
	// extreme volatility is capped
	if wild := BuildTradePlan(tk, s, 50, nil); math.Abs(wild.SellTarget-130) > 1e-9 || math.Abs(wild.StopLoss-85) > 1e-9 {
		t.Errorf("expected capped band, got target %.4f stop %.4f", wild.SellTarget, wild.StopLoss)
	}
}

func TestBuildTradePlan_StopRaisedToSupport(t *testing.T) {
	tk := model.TickerSnapshot{Symbol: "XUSDT", LastPrice: 100}
	s := model.ExplosionScore{Symbol: "XUSDT", Score: 72, RSI: 55}
	closes := []float64{98, 99, 101, 100, 99.5, 100}

	plan := BuildTradePlan(tk, s, 2, closes)
	if math.Abs(plan.StopLoss-98*supportBuffer) > 1e-9 {
		t.Errorf("expected stop at support, got %.4f", plan.StopLoss)
	}
	if plan.StopLoss >= plan.BuyPrice || plan.SellTarget <= plan.BuyPrice {
		t.Error("expected stop < buy < target")
	}
}

func TestBuildTradePlan_ConfidenceDiscounts(t *testing.T) {
	tk := model.TickerSnapshot{Symbol: "XUSDT", LastPrice: 100}
	hot := model.ExplosionScore{Symbol: "XUSDT", Score: 90, RSI: 82}
	plan := BuildTradePlan(tk, hot, 10, nil)
	// 90 * 0.8 * 0.85
	if plan.Confidence != 61 {
		t.Errorf("expected 61, got %.0f", plan.Confidence)
	}

	atTop := BuildTradePlan(tk, model.ExplosionScore{Score: 60, RSI: 50}, 2, []float64{90, 95, 100})
	if atTop.Confidence != 54 {
		t.Errorf("expected range-top discount to 54, got %.0f", atTop.Confidence)
	}
}

func TestBuildTradePlan_BelowAverageDiscount(t *testing.T) {
	s := model.ExplosionScore{Symbol: "XUSDT", Score: 80, RSI: 50}
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}

	// 20-bar SMA is 100; the range is flat so its top-decile discount never fires
	below := BuildTradePlan(model.TickerSnapshot{Symbol: "XUSDT", LastPrice: 95}, s, 2, closes)
	if below.Confidence != 72 {
		t.Errorf("expected 80 * 0.9 = 72 below the average, got %.0f", below.Confidence)
	}
	above := BuildTradePlan(model.TickerSnapshot{Symbol: "XUSDT", LastPrice: 100}, s, 2, closes)
	if above.Confidence != 80 {
		t.Errorf("expected no discount at the average, got %.0f", above.Confidence)
	}
	// fewer than 20 closes skips the check
	short := BuildTradePlan(model.TickerSnapshot{Symbol: "XUSDT", LastPrice: 95}, s, 2, closes[:10])
	if short.Confidence != 80 {
		t.Errorf("expected no discount on a short series, got %.0f", short.Confidence)
	}
}
