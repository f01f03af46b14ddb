package chains

import (
	"context"

	"github.com/bcdannyboy/optionlab/curves"
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/bcdannyboy/optionlab/pricing"
	"github.com/bcdannyboy/optionlab/surfaces"
	"github.com/shopspring/decimal"
)

// GreekAxis selects the value plotted against strike.
type GreekAxis int

const (
	AxisVolatility GreekAxis = iota
	AxisDelta
	AxisGamma
	AxisTheta
	AxisVega
	AxisPrice
)

func (a GreekAxis) String() string {
	switch a {
	case AxisVolatility:
		return "volatility"
	case AxisDelta:
		return "delta"
	case AxisGamma:
		return "gamma"
	case AxisTheta:
		return "theta"
	case AxisVega:
		return "vega"
	case AxisPrice:
		return "price"
	}
	return "unknown"
}

// Sweep is the second axis of a chain surface.
type Sweep int

const (
	SweepVolatility Sweep = iota
	SweepDays
)

// AxisValue evaluates axis for opt. Prices are signed by side; Greeks come
// from the position view of the contract.
func AxisValue(axis GreekAxis, opt options.Option) (decimal.Decimal, error) {
	switch axis {
	case AxisVolatility:
		return opt.ImpliedVolatility.Decimal(), nil
	case AxisPrice:
		p, err := pricing.Price(opt)
		if err != nil {
			return decimal.Zero, err
		}
		return p.Mul(opt.Side.Sign()), nil
	case AxisDelta, AxisGamma, AxisTheta, AxisVega:
	default:
		return decimal.Zero, errs.Domain("chains.AxisValue", "unsupported axis %d", axis)
	}
	g, err := pricing.CalculateGreeks(opt)
	if err != nil {
		return decimal.Zero, err
	}
	switch axis {
	case AxisDelta:
		return g.Delta, nil
	case AxisGamma:
		return g.Gamma, nil
	case AxisTheta:
		return g.Theta, nil
	}
	return g.Vega, nil
}

// priced are the rows with a usable volatility.
func (c *OptionChain) priced() []OptionData {
	out := make([]OptionData, 0, len(c.rows))
	for _, r := range c.rows {
		if _, ok := r.Volatility(); ok {
			out = append(out, r)
		}
	}
	return out
}

// Smile is the (strike, σ) curve; rows with unknown σ are skipped.
func (c *OptionChain) Smile() (*curves.Curve, error) {
	rows := c.priced()
	if len(rows) == 0 {
		return nil, errs.InsufficientData("chains.Smile", "no row has a known volatility")
	}
	pts := make([]geometrics.Point2D, len(rows))
	for i, r := range rows {
		pts[i] = geometrics.Point2D{X: r.Strike.Decimal(), Y: r.ImpliedVolatility.Decimal}
	}
	return curves.FromPoints(pts)
}

// VolatilitySkew is σ against moneyness strike/underlying.
func (c *OptionChain) VolatilitySkew() (*curves.Curve, error) {
	if c.UnderlyingPrice.IsZero() {
		return nil, errs.Domain("chains.VolatilitySkew", "underlying price must be positive")
	}
	rows := c.priced()
	if len(rows) == 0 {
		return nil, errs.InsufficientData("chains.VolatilitySkew", "no row has a known volatility")
	}
	pts := make([]geometrics.Point2D, len(rows))
	for i, r := range rows {
		m, err := r.Strike.Div(c.UnderlyingPrice)
		if err != nil {
			return nil, err
		}
		pts[i] = geometrics.Point2D{X: m.Decimal(), Y: r.ImpliedVolatility.Decimal}
	}
	return curves.FromPoints(pts)
}

// Curve plots axis against strike for one contract of style held on side.
func (c *OptionChain) Curve(axis GreekAxis, style options.OptionStyle, side options.Side) (*curves.Curve, error) {
	rows := c.priced()
	if len(rows) == 0 {
		return nil, errs.InsufficientData("chains.Curve", "no row has a known volatility")
	}
	pts, err := geometrics.Evaluate(context.Background(), len(rows), func(i int) (geometrics.Point2D, error) {
		vol, _ := rows[i].Volatility()
		v, err := AxisValue(axis, c.option(rows[i].Strike, vol, style).WithSide(side))
		return geometrics.Point2D{X: rows[i].Strike.Decimal(), Y: v}, err
	})
	if err != nil {
		return nil, err
	}
	return curves.FromPoints(pts)
}

// Surface evaluates axis over strike × sweep values. Sweeping volatility
// replaces each row's σ; sweeping days reprices each row at every
// days-to-expiry with its own σ.
func (c *OptionChain) Surface(axis GreekAxis, style options.OptionStyle, side options.Side, sweep Sweep, values []positive.Positive) (*surfaces.Surface, error) {
	if len(values) == 0 {
		return nil, errs.Domain("chains.Surface", "no %s values to sweep", sweepName(sweep))
	}
	rows := c.priced()
	if len(rows) == 0 {
		return nil, errs.InsufficientData("chains.Surface", "no row has a known volatility")
	}
	n := len(values)
	pts, err := geometrics.Evaluate(context.Background(), len(rows)*n, func(k int) (geometrics.Point3D, error) {
		row, v := rows[k/n], values[k%n]
		vol, _ := row.Volatility()
		opt := c.option(row.Strike, vol, style).WithSide(side)
		switch sweep {
		case SweepVolatility:
			opt = opt.WithVolatility(v)
		case SweepDays:
			opt = opt.WithExpirationDays(v)
		default:
			return geometrics.Point3D{}, errs.Domain("chains.Surface", "unsupported sweep %d", sweep)
		}
		z, err := AxisValue(axis, opt)
		return geometrics.Point3D{X: row.Strike.Decimal(), Y: v.Decimal(), Z: z}, err
	})
	if err != nil {
		return nil, err
	}
	return surfaces.FromPoints(pts)
}

func sweepName(s Sweep) string {
	if s == SweepDays {
		return "days"
	}
	return "volatility"
}
