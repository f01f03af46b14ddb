package pricing

import (
	"math"

	"github.com/bcdannyboy/optionlab/options"
	"github.com/shopspring/decimal"
)

// Greeks holds the sensitivities of a position. Theta is per year, vega per
// unit of volatility and rho per unit of rate.
type Greeks struct {
	Delta  decimal.Decimal `json:"delta"`
	Gamma  decimal.Decimal `json:"gamma"`
	Theta  decimal.Decimal `json:"theta"`
	Vega   decimal.Decimal `json:"vega"`
	Rho    decimal.Decimal `json:"rho"`
	RhoD   decimal.Decimal `json:"rho_d"`
	Vanna  decimal.Decimal `json:"vanna"`
	Charm  decimal.Decimal `json:"charm"`
	Speed  decimal.Decimal `json:"speed"`
	Zomma  decimal.Decimal `json:"zomma"`
	Color  decimal.Decimal `json:"color"`
	Ultima decimal.Decimal `json:"ultima"`
	Veta   decimal.Decimal `json:"veta"`
}

// Add sums two sets of Greeks, e.g. the legs of a spread.
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta:  g.Delta.Add(o.Delta),
		Gamma:  g.Gamma.Add(o.Gamma),
		Theta:  g.Theta.Add(o.Theta),
		Vega:   g.Vega.Add(o.Vega),
		Rho:    g.Rho.Add(o.Rho),
		RhoD:   g.RhoD.Add(o.RhoD),
		Vanna:  g.Vanna.Add(o.Vanna),
		Charm:  g.Charm.Add(o.Charm),
		Speed:  g.Speed.Add(o.Speed),
		Zomma:  g.Zomma.Add(o.Zomma),
		Color:  g.Color.Add(o.Color),
		Ultima: g.Ultima.Add(o.Ultima),
		Veta:   g.Veta.Add(o.Veta),
	}
}

// Bumps are the finite-difference step sizes. Spot and Vol are relative to
// the current spot and volatility, Time is in years, Rate is absolute.
type Bumps struct {
	Spot float64
	Vol  float64
	Time float64
	Rate float64
}

var (
	// DefaultBumps drive speed, color and ultima of the closed-form pricer.
	DefaultBumps = Bumps{Spot: 1e-4, Vol: 1e-4, Time: 1.0 / options.DaysInYear, Rate: 1e-4}
	// TreeBumps are wider so lattice and Monte Carlo noise does not dominate.
	TreeBumps = Bumps{Spot: 1e-2, Vol: 1e-2, Time: 1.0 / options.DaysInYear, Rate: 1e-4}
)

type rawGreeks struct {
	delta, gamma, theta, vega, rho, rhoD            float64
	vanna, charm, speed, zomma, color, ultima, veta float64
}

func (g rawGreeks) toDecimal(op string, scale decimal.Decimal) (Greeks, error) {
	vals := []float64{g.delta, g.gamma, g.theta, g.vega, g.rho, g.rhoD, g.vanna, g.charm, g.speed, g.zomma, g.color, g.ultima, g.veta}
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		d, err := toDecimal(op, v)
		if err != nil {
			return Greeks{}, err
		}
		out[i] = d.Mul(scale)
	}
	return Greeks{
		Delta: out[0], Gamma: out[1], Theta: out[2], Vega: out[3], Rho: out[4], RhoD: out[5],
		Vanna: out[6], Charm: out[7], Speed: out[8], Zomma: out[9], Color: out[10], Ultima: out[11], Veta: out[12],
	}, nil
}

// positionScale is quantity, negated for short positions.
func positionScale(opt options.Option) decimal.Decimal {
	return opt.Quantity.Decimal().Mul(opt.Side.Sign())
}

// intrinsicGreeks is the zero-time limit: delta is 0 or +-1, everything else 0.
func intrinsicGreeks(in inputs) rawGreeks {
	var g rawGreeks
	switch {
	case in.call && in.S > in.K:
		g.delta = 1
	case !in.call && in.S < in.K:
		g.delta = -1
	}
	return g
}

func bsmGamma(in inputs) float64 {
	if in.degenerate() {
		return 0
	}
	d1, _ := in.d1d2()
	return math.Exp(-in.q*in.T) * normPDF(d1) / (in.S * in.sigma * math.Sqrt(in.T))
}

func bsmVega(in inputs) float64 {
	if in.degenerate() {
		return 0
	}
	d1, _ := in.d1d2()
	return in.S * math.Exp(-in.q*in.T) * normPDF(d1) * math.Sqrt(in.T)
}

// bsmVomma is the second derivative of price with respect to volatility.
func bsmVomma(in inputs) float64 {
	if in.degenerate() {
		return 0
	}
	d1, d2 := in.d1d2()
	return bsmVega(in) * d1 * d2 / in.sigma
}

// bsmGreeks computes the closed-form Greeks and the finite-difference ones
// (speed, color, ultima) from bumps.
func bsmGreeks(in inputs, b Bumps) rawGreeks {
	if in.degenerate() {
		return intrinsicGreeks(in)
	}
	d1, d2 := in.d1d2()
	sqrtT := math.Sqrt(in.T)
	dq := math.Exp(-in.q * in.T)
	dr := math.Exp(-in.r * in.T)
	nd1 := normPDF(d1)

	var g rawGreeks
	g.gamma = bsmGamma(in)
	g.vega = bsmVega(in)
	g.vanna = -dq * nd1 * d2 / in.sigma
	g.zomma = g.gamma * (d1*d2 - 1) / in.sigma
	g.veta = -in.S * dq * nd1 * sqrtT * (in.q + (in.r-in.q)*d1/(in.sigma*sqrtT) - (1+d1*d2)/(2*in.T))

	decay := -in.S * dq * nd1 * in.sigma / (2 * sqrtT)
	charmCommon := dq * nd1 * (2*(in.r-in.q)*in.T - d2*in.sigma*sqrtT) / (2 * in.T * in.sigma * sqrtT)
	if in.call {
		g.delta = dq * normCDF(d1)
		g.theta = decay - in.r*in.K*dr*normCDF(d2) + in.q*in.S*dq*normCDF(d1)
		g.rho = in.K * in.T * dr * normCDF(d2)
		g.rhoD = -in.T * in.S * dq * normCDF(d1)
		g.charm = in.q*dq*normCDF(d1) - charmCommon
	} else {
		g.delta = -dq * normCDF(-d1)
		g.theta = decay + in.r*in.K*dr*normCDF(-d2) - in.q*in.S*dq*normCDF(-d1)
		g.rho = -in.K * in.T * dr * normCDF(-d2)
		g.rhoD = in.T * in.S * dq * normCDF(-d1)
		g.charm = -in.q*dq*normCDF(-d1) - charmCommon
	}

	// speed: dGamma/dS
	h := b.Spot * in.S
	up, down := in, in
	up.S += h
	down.S -= h
	g.speed = (bsmGamma(up) - bsmGamma(down)) / (2 * h)

	// color: dGamma/dt in calendar time
	g.color = -timeDerivative(in, b.Time, func(x inputs) float64 { return bsmGamma(x) })

	// ultima: dVomma/dSigma
	hv := b.Vol * in.sigma
	up, down = in, in
	up.sigma += hv
	down.sigma -= hv
	g.ultima = (bsmVomma(up) - bsmVomma(down)) / (2 * hv)

	return g
}

// timeDerivative differentiates f with respect to time to expiry, one-sided
// when the backward bump would cross expiry.
func timeDerivative(in inputs, ht float64, f func(inputs) float64) float64 {
	up := in
	up.T += ht
	if in.T-ht > 0 {
		down := in
		down.T -= ht
		return (f(up) - f(down)) / (2 * ht)
	}
	return (f(up) - f(in)) / ht
}

// Vomma exposes the second volatility derivative of the Black-Scholes price.
func Vomma(opt options.Option) (decimal.Decimal, error) {
	in, err := inputsFrom(opt)
	if err != nil {
		return decimal.Zero, err
	}
	v, err := toDecimal("pricing.Vomma", bsmVomma(in))
	if err != nil {
		return decimal.Zero, err
	}
	return v.Mul(positionScale(opt)), nil
}

// ShadowGamma measures delta change when spot and volatility move together,
// returning the up and down gammas for a relative price and vol change.
func ShadowGamma(opt options.Option, priceChange, volChange float64) (decimal.Decimal, decimal.Decimal, error) {
	in, err := inputsFrom(opt)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	base := bsmGreeks(in, DefaultBumps).delta

	up := in
	up.S *= 1 + priceChange
	up.sigma *= 1 + volChange
	down := in
	down.S *= 1 - priceChange
	down.sigma *= 1 - volChange

	shadowUp := (bsmGreeks(up, DefaultBumps).delta - base) / (up.S - in.S)
	shadowDown := (base - bsmGreeks(down, DefaultBumps).delta) / (in.S - down.S)

	scale := positionScale(opt)
	u, err := toDecimal("pricing.ShadowGamma", shadowUp)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	d, err := toDecimal("pricing.ShadowGamma", shadowDown)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return u.Mul(scale), d.Mul(scale), nil
}

// SkewGamma is the central difference of vega over an absolute volatility step.
func SkewGamma(opt options.Option, volStep float64) (decimal.Decimal, error) {
	in, err := inputsFrom(opt)
	if err != nil {
		return decimal.Zero, err
	}
	up, down := in, in
	up.sigma += volStep
	down.sigma = math.Max(MinVolatility, down.sigma-volStep)
	v, err := toDecimal("pricing.SkewGamma", (bsmVega(up)-bsmVega(down))/(up.sigma-down.sigma))
	if err != nil {
		return decimal.Zero, err
	}
	return v.Mul(positionScale(opt)), nil
}

type priceFunc func(inputs) (float64, error)

// finiteDifferenceGreeks derives every Greek from a price function. Higher
// orders are built by nesting the first-order differences.
func finiteDifferenceGreeks(price priceFunc, in inputs, b Bumps) (rawGreeks, error) {
	if in.degenerate() {
		return intrinsicGreeks(in), nil
	}
	var firstErr error
	p := func(x inputs) float64 {
		v, err := price(x)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return v
	}

	h := b.Spot * in.S
	hv := b.Vol * in.sigma
	if hv <= 0 {
		hv = b.Vol
	}

	dS := func(f func(inputs) float64) func(inputs) float64 {
		return func(x inputs) float64 {
			up, down := x, x
			up.S += h
			down.S -= h
			return (f(up) - f(down)) / (2 * h)
		}
	}
	dSigma := func(f func(inputs) float64) func(inputs) float64 {
		return func(x inputs) float64 {
			up := x
			up.sigma += hv
			if x.sigma-hv > 0 {
				down := x
				down.sigma -= hv
				return (f(up) - f(down)) / (2 * hv)
			}
			return (f(up) - f(x)) / hv
		}
	}
	dT := func(f func(inputs) float64) func(inputs) float64 {
		return func(x inputs) float64 { return timeDerivative(x, b.Time, f) }
	}
	dRate := func(f func(inputs) float64, q bool) func(inputs) float64 {
		return func(x inputs) float64 {
			up, down := x, x
			if q {
				up.q += b.Rate
				down.q -= b.Rate
			} else {
				up.r += b.Rate
				down.r -= b.Rate
			}
			return (f(up) - f(down)) / (2 * b.Rate)
		}
	}

	delta := dS(p)
	gamma := dS(delta)
	vega := dSigma(p)
	vomma := dSigma(vega)

	g := rawGreeks{
		delta:  delta(in),
		gamma:  gamma(in),
		theta:  -dT(p)(in),
		vega:   vega(in),
		rho:    dRate(p, false)(in),
		rhoD:   dRate(p, true)(in),
		vanna:  dSigma(delta)(in),
		charm:  -dT(delta)(in),
		speed:  dS(gamma)(in),
		zomma:  dSigma(gamma)(in),
		color:  -dT(gamma)(in),
		ultima: dSigma(vomma)(in),
		veta:   dT(vega)(in),
	}
	return g, firstErr
}
