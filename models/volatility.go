// Package models estimates and simulates volatility: sample and rolling
// estimators, EWMA, GARCH(1,1), Heston, range-based estimators over candles
// and local-volatility paths.
package models

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/bcdannyboy/optionlab/pricing"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

const TradingDaysPerYear = 252

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// ConstantVolatility is the unbiased sample standard deviation of returns.
// A single return gives 0, as does a sample with no spread.
func ConstantVolatility(returns []float64) (float64, error) {
	if len(returns) == 0 {
		return 0, errs.Domain("models.ConstantVolatility", "empty returns")
	}
	if len(returns) < 2 || constant(returns) {
		return 0, nil
	}
	return stat.StdDev(returns, nil), nil
}

// HistoricalVolatility applies ConstantVolatility to every window of length
// window, yielding len(returns)-window+1 values.
func HistoricalVolatility(returns []float64, window int) ([]float64, error) {
	if len(returns) == 0 {
		return nil, errs.Domain("models.HistoricalVolatility", "empty returns")
	}
	if window <= 0 || window > len(returns) {
		return nil, errs.Domain("models.HistoricalVolatility", "window %d outside [1, %d]", window, len(returns))
	}
	out := make([]float64, 0, len(returns)-window+1)
	for i := 0; i+window <= len(returns); i++ {
		v, err := ConstantVolatility(returns[i : i+window])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// EWMAVolatility runs σ²_t = λσ²_{t−1} + (1−λ)r_t² seeded with σ²_0 = r_0²
// and returns σ_t for every t.
func EWMAVolatility(returns []float64, lambda float64) ([]float64, error) {
	if len(returns) == 0 {
		return nil, errs.Domain("models.EWMAVolatility", "empty returns")
	}
	if !(lambda > 0 && lambda < 1) {
		return nil, errs.Domain("models.EWMAVolatility", "lambda %v outside (0, 1)", lambda)
	}
	out := make([]float64, len(returns))
	variance := returns[0] * returns[0]
	out[0] = math.Sqrt(variance)
	for t := 1; t < len(returns); t++ {
		variance = lambda*variance + (1-lambda)*returns[t]*returns[t]
		out[t] = math.Sqrt(variance)
	}
	return out, nil
}

// AnnualizedVolatility scales a per-period volatility by √periodsPerYear.
func AnnualizedVolatility(sigma, periodsPerYear float64) (float64, error) {
	if sigma < 0 || periodsPerYear <= 0 {
		return 0, errs.Domain("models.AnnualizedVolatility", "sigma %v, periods %v", sigma, periodsPerYear)
	}
	return sigma * math.Sqrt(periodsPerYear), nil
}

// LogReturns computes ln(p_i / p_{i-1}); prices must be positive.
func LogReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, errs.Domain("models.LogReturns", "need at least 2 prices, got %d", len(prices))
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i] <= 0 || prices[i-1] <= 0 {
			return nil, errs.Domain("models.LogReturns", "non-positive price at %d", i)
		}
		out[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return out, nil
}

// ImpliedVolatilitySmile solves the implied volatility of template struck at
// each strike against the matching market price.
func ImpliedVolatilitySmile(prices []decimal.Decimal, strikes []positive.Positive, template options.Option) ([]pricing.IVResult, error) {
	if len(prices) == 0 {
		return nil, errs.Domain("models.ImpliedVolatilitySmile", "no prices")
	}
	if len(prices) != len(strikes) {
		return nil, errs.Domain("models.ImpliedVolatilitySmile", "%d prices for %d strikes", len(prices), len(strikes))
	}
	out := make([]pricing.IVResult, len(prices))
	for i := range prices {
		opt := template
		opt.Strike = strikes[i]
		res, err := pricing.ImpliedVolatility(opt, prices[i])
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}
