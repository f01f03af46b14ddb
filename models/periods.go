package models

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/ohlcv"
)

// Period is a trailing window of trading days.
type Period struct {
	Name string
	Days int
}

var DefaultPeriods = []Period{
	{"1w", 5},
	{"2w", 10},
	{"1m", 21},
	{"3m", 63},
	{"6m", 126},
	{"1y", 252},
}

// RangeEstimator turns a run of candles into an annualised volatility.
type RangeEstimator func(candles []ohlcv.Candle) (float64, error)

// ByPeriod runs est over the trailing window of every period the history is
// long enough for. Windows the estimator rejects are left out.
func ByPeriod(candles []ohlcv.Candle, periods []Period, est RangeEstimator) map[string]float64 {
	results := make(map[string]float64)
	for _, p := range periods {
		if len(candles) < p.Days {
			continue
		}
		if v, err := est(ohlcv.Tail(candles, p.Days)); err == nil {
			results[p.Name] = v
		}
	}
	return results
}

type ohlc struct {
	opens, highs, lows, closes []float64
}

func ohlcFrom(op string, candles []ohlcv.Candle, minLen int) (ohlc, error) {
	if len(candles) < minLen {
		return ohlc{}, errs.Domain(op, "need at least %d candles, got %d", minLen, len(candles))
	}
	n := len(candles)
	b := ohlc{
		opens:  make([]float64, n),
		highs:  make([]float64, n),
		lows:   make([]float64, n),
		closes: make([]float64, n),
	}
	for i, c := range candles {
		b.opens[i] = c.Open.InexactFloat64()
		b.highs[i] = c.High.InexactFloat64()
		b.lows[i] = c.Low.InexactFloat64()
		b.closes[i] = c.Close.InexactFloat64()
		if b.opens[i] <= 0 || b.highs[i] <= 0 || b.lows[i] <= 0 || b.closes[i] <= 0 {
			return ohlc{}, errs.Domain(op, "non-positive price on %s", c.Date.Format("2006-01-02"))
		}
		if b.highs[i] < b.lows[i] {
			return ohlc{}, errs.Domain(op, "high below low on %s", c.Date.Format("2006-01-02"))
		}
	}
	return b, nil
}

func annualize(op string, variance float64) (float64, error) {
	if math.IsNaN(variance) || variance < 0 {
		return 0, errs.Numeric(op, "variance estimate %v", variance)
	}
	return math.Sqrt(variance * TradingDaysPerYear), nil
}

func logRatio(a, b float64) float64 { return math.Log(a / b) }
