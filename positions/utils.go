package positions

import (
	"context"

	"github.com/bcdannyboy/optionlab/curves"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/shopspring/decimal"
)

func (p *Position) qty() decimal.Decimal { return p.Option.Quantity.Decimal() }

// feesPerContract is the round-trip fee of one contract.
func (p *Position) feesPerContract() positive.Positive { return p.OpenFee.Add(p.CloseFee) }

// Fees is the round-trip fee of the whole quantity.
func (p *Position) Fees() decimal.Decimal {
	return p.feesPerContract().Decimal().Mul(p.qty())
}

// maxIntrinsic is the largest per-unit exercise value the contract can reach.
// Vanilla calls have none.
func maxIntrinsic(opt options.Option) (decimal.Decimal, bool) {
	if opt.Type == options.Binary && opt.Exotic != nil {
		return opt.Exotic.Payout.Decimal(), true
	}
	if opt.Style == options.Put {
		return opt.Strike.Decimal(), true
	}
	return decimal.Zero, false
}

// pnlAt is side · (value − premium) · qty − fees for a per-unit value.
func (p *Position) pnlAt(value decimal.Decimal) decimal.Decimal {
	return p.Option.Side.Sign().
		Mul(value.Sub(p.Premium.Decimal())).
		Mul(p.qty()).
		Sub(p.Fees())
}

func absDecimal(a, b positive.Positive) positive.Positive {
	if a.LessThan(b) {
		return b.SaturatingSub(a)
	}
	return a.SaturatingSub(b)
}

func profitCurve(ctx context.Context, pnl func(positive.Positive) decimal.Decimal, from, to positive.Positive, steps int) (*curves.Curve, error) {
	return curves.NewContext(ctx, curves.Parametric{
		F: func(t decimal.Decimal) (geometrics.Point2D, error) {
			spot, err := positive.New(t)
			if err != nil {
				return geometrics.Point2D{}, err
			}
			return geometrics.Point2D{X: t, Y: pnl(spot)}, nil
		},
		Params: geometrics.Params2D{TStart: from.Decimal(), TEnd: to.Decimal(), Steps: steps},
	})
}
