package calculator

import "math"

// MinVolatilityBars is the minimum number of closes Volatility needs.
const MinVolatilityBars = 10

// Volatility returns the population standard deviation of simple returns, in percent.
// Returns 0 when fewer than MinVolatilityBars closes are given.
func Volatility(closes []float64) float64 {
	if len(closes) < MinVolatilityBars {
		return 0
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance) * 100
}
