package calculator

import "CryptoRadar/internal/model"

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	// MACDMinBars is the number of closes needed for a full MACD readout:
	// the slow EMA must be warm and the MACD line must span a full signal period.
	MACDMinBars = macdSlow + macdSignal - 1
)

// MACD computes the 12/26 MACD line, its 9-period signal line and the histogram.
// Returns a zero-valued result when fewer than MACDMinBars closes are given.
func MACD(closes []float64) model.MACD {
	if len(closes) < MACDMinBars {
		return model.MACD{}
	}
	fast := EMASeries(closes, macdFast)
	slow := EMASeries(closes, macdSlow)

	// The MACD line is only meaningful once the slow EMA has seen a full period.
	line := make([]float64, 0, len(closes)-macdSlow+1)
	for i := macdSlow - 1; i < len(closes); i++ {
		line = append(line, fast[i]-slow[i])
	}

	macd := line[len(line)-1]
	signal := EMA(line, macdSignal)
	return model.MACD{
		MACD:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}
}
