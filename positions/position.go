package positions

import (
	"context"
	"fmt"
	"time"

	"github.com/bcdannyboy/optionlab/curves"
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// New opens a position on opt at premium per contract. Short positions must
// collect a premium that covers their fees.
func New(opt options.Option, premium positive.Positive, openedAt time.Time, openFee, closeFee positive.Positive) (*Position, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if opt.Quantity.IsZero() {
		return nil, errs.Domain("positions.New", "quantity must be positive")
	}
	if opt.Side == options.Short {
		if premium.IsZero() {
			return nil, errs.Domain("positions.New", "short position without premium")
		}
		if premium.LessThan(openFee.Add(closeFee)) {
			return nil, errs.Domain("positions.New", "premium %s does not cover fees %s", premium, openFee.Add(closeFee))
		}
	}
	return &Position{
		ID:       uuid.New(),
		Option:   opt,
		Premium:  premium,
		OpenedAt: openedAt,
		OpenFee:  openFee,
		CloseFee: closeFee,
	}, nil
}

// Close records the exit. A position closes once.
func (p *Position) Close(at time.Time, closePremium positive.Positive) error {
	if p.IsClosed() {
		return errs.Domain("positions.Close", "position %s already closed", p.ID)
	}
	if at.Before(p.OpenedAt) {
		return errs.Domain("positions.Close", "close time %s before open %s", at.Format(time.RFC3339), p.OpenedAt.Format(time.RFC3339))
	}
	p.ClosedAt = &at
	p.ClosePremium = &closePremium
	return nil
}

func (p *Position) IsClosed() bool { return p.ClosedAt != nil }

// Contract is the underlying option.
func (p *Position) Contract() options.Option { return p.Option }

// TotalCost is what the position pays: premium and fees for longs, fees only
// for shorts.
func (p *Position) TotalCost() decimal.Decimal {
	if p.Option.Side == options.Short {
		return p.Fees()
	}
	return p.Premium.Decimal().Mul(p.qty()).Add(p.Fees())
}

func (p *Position) PremiumReceived() decimal.Decimal {
	if p.Option.Side == options.Short {
		return p.Premium.Decimal().Mul(p.qty())
	}
	return decimal.Zero
}

// NetPremium is the signed cash flow of the premium after fees: positive for
// shorts, negative for longs.
func (p *Position) NetPremium() decimal.Decimal {
	return p.PremiumReceived().Sub(p.TotalCost())
}

// PnLAtExpiry is the profit or loss if the underlying settles at spot.
func (p *Position) PnLAtExpiry(spot positive.Positive) decimal.Decimal {
	return p.pnlAt(p.Option.IntrinsicValueAt(spot))
}

// RealizedPnL is the P&L of a closed position.
func (p *Position) RealizedPnL() (decimal.Decimal, error) {
	if !p.IsClosed() {
		return decimal.Zero, errs.Domain("positions.RealizedPnL", "position %s is open", p.ID)
	}
	return p.pnlAt(p.ClosePremium.Decimal()), nil
}

// UnrealizedPnL marks the position at mark, a per-contract premium, over the
// whole quantity with fees included.
func (p *Position) UnrealizedPnL(mark positive.Positive) decimal.Decimal {
	return p.pnlAt(mark.Decimal())
}

// MaxProfit is the best P&L at expiry over the whole quantity, fees included.
func (p *Position) MaxProfit() Bound {
	if p.Option.Side == options.Short {
		return bounded(p.NetPremium())
	}
	top, ok := maxIntrinsic(p.Option)
	if !ok {
		return Bound{Unbounded: true}
	}
	return bounded(p.pnlAt(top))
}

// MaxLoss is the worst P&L at expiry over the whole quantity, fees
// included, reported as a non-negative magnitude.
func (p *Position) MaxLoss() Bound {
	if p.Option.Side == options.Long {
		return bounded(p.TotalCost())
	}
	top, ok := maxIntrinsic(p.Option)
	if !ok {
		return Bound{Unbounded: true}
	}
	return bounded(p.pnlAt(top).Neg())
}

// BreakEvenPoints are the settlement prices with zero P&L. Binary payoffs jump
// over zero and have none; a put whose cost exceeds its strike has none.
func (p *Position) BreakEvenPoints() []positive.Positive {
	if p.Option.Type == options.Binary {
		return nil
	}
	fees := p.feesPerContract().Decimal()
	// per-unit premium the underlying has to move through
	var offset decimal.Decimal
	if p.Option.Side == options.Long {
		offset = p.Premium.Decimal().Add(fees)
	} else {
		offset = p.Premium.Decimal().Sub(fees)
	}
	k := p.Option.Strike.Decimal()
	var be decimal.Decimal
	if p.Option.Style == options.Call {
		be = k.Add(offset)
	} else {
		be = k.Sub(offset)
	}
	if be.IsNegative() {
		return nil
	}
	return []positive.Positive{positive.MustNew(be)}
}

// ProfitCurve samples PnLAtExpiry over steps settlement prices in [from, to].
func (p *Position) ProfitCurve(from, to positive.Positive, steps int) (*curves.Curve, error) {
	return p.ProfitCurveContext(context.Background(), from, to, steps)
}

func (p *Position) ProfitCurveContext(ctx context.Context, from, to positive.Positive, steps int) (*curves.Curve, error) {
	return profitCurve(ctx, p.PnLAtExpiry, from, to, steps)
}

func (p *Position) String() string {
	state := "open"
	if p.IsClosed() {
		state = "closed"
	}
	return fmt.Sprintf("%s @ %s (%s)", p.Option.Title(), p.Premium, state)
}
