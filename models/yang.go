package models

import (
	"github.com/bcdannyboy/optionlab/ohlcv"
	"gonum.org/v1/gonum/stat"
)

// YangZhang combines overnight, open-close and Rogers-Satchell variances:
// σ² = σ²_o + k σ²_c + (1 − k) σ²_rs with k = 0.34 / (1.34 + (n+1)/(n−1)).
func YangZhang(candles []ohlcv.Candle) (float64, error) {
	b, err := ohlcFrom("models.YangZhang", candles, 3)
	if err != nil {
		return 0, err
	}
	n := float64(len(b.opens))
	k := 0.34 / (1.34 + (n+1)/(n-1))

	overnight := make([]float64, len(b.opens)-1)
	for i := 1; i < len(b.opens); i++ {
		overnight[i-1] = logRatio(b.opens[i], b.closes[i-1])
	}
	openClose := make([]float64, len(b.opens))
	for i := range b.opens {
		openClose[i] = logRatio(b.closes[i], b.opens[i])
	}

	variance := stat.Variance(overnight, nil) + k*stat.Variance(openClose, nil) + (1-k)*rogersSatchellVariance(b)
	return annualize("models.YangZhang", variance)
}

func YangZhangVolatilities(candles []ohlcv.Candle) map[string]float64 {
	return ByPeriod(candles, DefaultPeriods, YangZhang)
}
