package pricing

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/shopspring/decimal"
)

const (
	ivTolerance     = 1e-12
	ivMaxIterations = 100
	machineEpsilon  = 2.220446049250313e-16
)

// IVResult is the outcome of an implied-volatility search. Known is false
// when the market price is not attainable for any volatility in
// [MinVolatility, MaxVolatility].
type IVResult struct {
	Value      positive.Positive
	Known      bool
	Iterations int
}

// ImpliedVolatility solves price(sigma) = marketPrice with Brent's method.
// The model price is taken from the option's own pricer.
func ImpliedVolatility(opt options.Option, marketPrice decimal.Decimal) (IVResult, error) {
	if marketPrice.IsNegative() {
		return IVResult{}, errs.Domain("pricing.ImpliedVolatility", "negative market price %s", marketPrice)
	}
	in, err := inputsFrom(opt)
	if err != nil {
		return IVResult{}, err
	}
	if in.T <= 0 {
		return IVResult{}, errs.Domain("pricing.ImpliedVolatility", "option has expired")
	}

	var model priceFunc
	switch opt.Type {
	case options.European:
		model = bsmPrice
	case options.American:
		model = TreePricer{Steps: active.Load().treeSteps}.priceFunc(true)
	case options.Binary:
		model = binaryPrice
	case options.Asian:
		model = asianPriceFunc(*opt.Exotic)
	default:
		return IVResult{}, errs.Domain("pricing.ImpliedVolatility", "unsupported option type %v", opt.Type)
	}

	target := marketPrice.InexactFloat64()
	f := func(sigma float64) (float64, error) {
		x := in
		x.sigma = sigma
		p, err := model(x)
		return p - target, err
	}

	sigma, iters, ok, err := brent(f, MinVolatility, MaxVolatility, ivTolerance, ivMaxIterations)
	if err != nil {
		return IVResult{}, err
	}
	if !ok {
		return IVResult{Iterations: iters}, nil
	}
	v, err := positive.NewFromFloat(sigma)
	if err != nil {
		return IVResult{}, errs.Numeric("pricing.ImpliedVolatility", "solver returned %v", sigma)
	}
	return IVResult{Value: v, Known: true, Iterations: iters}, nil
}

// brent finds a root of f on [a, b]. ok is false when f(a) and f(b) share a
// sign. Each step takes inverse quadratic or secant interpolation when it
// stays inside the bracket and shrinks fast enough, and bisects otherwise.
func brent(f func(float64) (float64, error), a, b, tol float64, maxIter int) (root float64, iters int, ok bool, err error) {
	fa, err := f(a)
	if err != nil {
		return 0, 0, false, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, 0, false, err
	}
	if fa == 0 {
		return a, 0, true, nil
	}
	if fb == 0 {
		return b, 0, true, nil
	}
	if (fa > 0) == (fb > 0) {
		return 0, 0, false, nil
	}

	c, fc := b, fb
	var d, e float64
	for iters = 1; iters <= maxIter; iters++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol1 := 2*machineEpsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, iters, true, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else if xm > 0 {
			b += tol1
		} else {
			b -= tol1
		}
		if fb, err = f(b); err != nil {
			return 0, iters, false, err
		}
		if math.IsNaN(fb) {
			return 0, iters, false, errs.Numeric("pricing.brent", "NaN objective at %v", b)
		}
	}
	return 0, maxIter, false, errs.Numeric("pricing.brent", "no convergence after %d iterations", maxIter)
}
