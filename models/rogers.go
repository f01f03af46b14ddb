package models

import (
	"math"

	"github.com/bcdannyboy/optionlab/ohlcv"
)

func rogersSatchellVariance(b ohlc) float64 {
	sum := 0.0
	for i := range b.opens {
		sum += math.Log(b.highs[i]/b.closes[i])*math.Log(b.highs[i]/b.opens[i]) +
			math.Log(b.lows[i]/b.closes[i])*math.Log(b.lows[i]/b.opens[i])
	}
	return sum / float64(len(b.opens))
}

// RogersSatchell is drift independent:
// σ² = mean(ln(H/C)·ln(H/O) + ln(L/C)·ln(L/O)).
func RogersSatchell(candles []ohlcv.Candle) (float64, error) {
	b, err := ohlcFrom("models.RogersSatchell", candles, 1)
	if err != nil {
		return 0, err
	}
	return annualize("models.RogersSatchell", rogersSatchellVariance(b))
}

func RogersSatchellVolatilities(candles []ohlcv.Candle) map[string]float64 {
	return ByPeriod(candles, DefaultPeriods, RogersSatchell)
}
