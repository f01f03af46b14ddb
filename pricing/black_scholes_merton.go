package pricing

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// MinVolatility and MaxVolatility bound every volatility search and clamp.
	MinVolatility = 1e-16
	MaxVolatility = 100.0
)

// inputs is the float64 view of an option used by the numerical kernels.
type inputs struct {
	S, K, T, r, q, sigma float64
	call                 bool
	// payout is the cash amount for binaries.
	payout float64
}

func inputsFrom(opt options.Option) (inputs, error) {
	if err := opt.Validate(); err != nil {
		return inputs{}, err
	}
	in := inputs{
		S:     opt.UnderlyingPrice.Float64(),
		K:     opt.Strike.Float64(),
		T:     opt.TimeToExpiryYears().Float64(),
		r:     opt.RiskFreeRate.InexactFloat64(),
		q:     opt.DividendYield.Float64(),
		sigma: opt.ImpliedVolatility.Float64(),
		call:  opt.Style == options.Call,
	}
	if opt.Exotic != nil {
		in.payout = opt.Exotic.Payout.Float64()
	}
	return in, in.check("pricing.inputs")
}

func (in inputs) check(op string) error {
	for _, v := range []float64{in.S, in.K, in.T, in.r, in.q, in.sigma} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.Numeric(op, "non-finite input %v", v)
		}
	}
	if in.sigma < 0 {
		return errs.Domain(op, "negative volatility %v", in.sigma)
	}
	if in.T < 0 {
		return errs.Domain(op, "negative time to expiry %v", in.T)
	}
	if in.S <= 0 || in.K <= 0 {
		return errs.Domain(op, "spot and strike must be positive")
	}
	return nil
}

// degenerate reports whether the closed form is undefined and the intrinsic path applies.
func (in inputs) degenerate() bool {
	return in.T <= 0 || in.sigma <= 0
}

func (in inputs) intrinsic(spot float64) float64 {
	if in.call {
		return math.Max(0, spot-in.K)
	}
	return math.Max(0, in.K-spot)
}

func (in inputs) d1d2() (float64, float64) {
	sqrtT := math.Sqrt(in.T)
	d1 := (math.Log(in.S/in.K) + (in.r-in.q+0.5*in.sigma*in.sigma)*in.T) / (in.sigma * sqrtT)
	return d1, d1 - in.sigma*sqrtT
}

func bsmPrice(in inputs) (float64, error) {
	if in.degenerate() {
		return in.intrinsic(in.S), nil
	}
	d1, d2 := in.d1d2()
	dq := math.Exp(-in.q * in.T)
	dr := math.Exp(-in.r * in.T)

	var price float64
	if in.call {
		price = in.S*dq*normCDF(d1) - in.K*dr*normCDF(d2)
	} else {
		price = in.K*dr*normCDF(-d2) - in.S*dq*normCDF(-d1)
	}
	if math.IsNaN(price) {
		return 0, errs.Numeric("pricing.BlackScholes", "NaN price for S=%v K=%v T=%v sigma=%v", in.S, in.K, in.T, in.sigma)
	}
	return price, nil
}

// BlackScholes prices a European option per unit of underlying.
func BlackScholes(opt options.Option) (decimal.Decimal, error) {
	in, err := inputsFrom(opt)
	if err != nil {
		return decimal.Zero, err
	}
	p, err := bsmPrice(in)
	if err != nil {
		return decimal.Zero, err
	}
	return toDecimal("pricing.BlackScholes", p)
}

// BlackScholesCall is the float64 kernel for callers outside the Option model.
func BlackScholesCall(S, K, r, q, sigma, T float64) float64 {
	p, _ := bsmPrice(inputs{S: S, K: K, r: r, q: q, sigma: sigma, T: T, call: true})
	return p
}

func BlackScholesPut(S, K, r, q, sigma, T float64) float64 {
	p, _ := bsmPrice(inputs{S: S, K: K, r: r, q: q, sigma: sigma, T: T})
	return p
}

// D1D2 returns the Black-Scholes d1 and d2 terms of opt.
func D1D2(opt options.Option) (float64, float64, error) {
	in, err := inputsFrom(opt)
	if err != nil {
		return 0, 0, err
	}
	if in.degenerate() {
		return 0, 0, errs.Domain("pricing.D1D2", "d1 undefined for T=%v sigma=%v", in.T, in.sigma)
	}
	d1, d2 := in.d1d2()
	return d1, d2, nil
}

// ProbabilityITM is the risk-neutral probability of finishing in the money.
func ProbabilityITM(opt options.Option) (decimal.Decimal, error) {
	in, err := inputsFrom(opt)
	if err != nil {
		return decimal.Zero, err
	}
	if in.degenerate() {
		if in.intrinsic(in.S) > 0 {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	}
	_, d2 := in.d1d2()
	if in.call {
		return toDecimal("pricing.ProbabilityITM", normCDF(d2))
	}
	return toDecimal("pricing.ProbabilityITM", normCDF(-d2))
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

func toDecimal(op string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, errs.Numeric(op, "non-finite result %v", v)
	}
	return decimal.NewFromFloat(v), nil
}
