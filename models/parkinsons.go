package models

import (
	"math"

	"github.com/bcdannyboy/optionlab/ohlcv"
)

// Parkinson estimates volatility from the high-low range alone:
// σ² = Σ ln(H/L)² / (4 n ln 2).
func Parkinson(candles []ohlcv.Candle) (float64, error) {
	b, err := ohlcFrom("models.Parkinson", candles, 1)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range b.highs {
		hl := math.Log(b.highs[i] / b.lows[i])
		sum += hl * hl
	}
	return annualize("models.Parkinson", sum/(4*float64(len(b.highs))*math.Ln2))
}

func ParkinsonVolatilities(candles []ohlcv.Candle) map[string]float64 {
	return ByPeriod(candles, DefaultPeriods, Parkinson)
}
