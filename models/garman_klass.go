package models

import (
	"math"

	"github.com/bcdannyboy/optionlab/ohlcv"
)

// GarmanKlass adds the open-close move to the Parkinson range:
// σ² = mean(½ ln(H/L)² − (2 ln 2 − 1) ln(C/O)²).
func GarmanKlass(candles []ohlcv.Candle) (float64, error) {
	b, err := ohlcFrom("models.GarmanKlass", candles, 1)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range b.opens {
		hl := math.Log(b.highs[i] / b.lows[i])
		co := math.Log(b.closes[i] / b.opens[i])
		sum += 0.5*hl*hl - (2*math.Ln2-1)*co*co
	}
	return annualize("models.GarmanKlass", sum/float64(len(b.opens)))
}

func GarmanKlassVolatilities(candles []ohlcv.Candle) map[string]float64 {
	return ByPeriod(candles, DefaultPeriods, GarmanKlass)
}
