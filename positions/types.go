// Package positions tracks single-option positions and the vertical spreads
// built from them: cost basis, fees, P&L, extremes and break-evens.
package positions

import (
	"time"

	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position is one option contract with its cost basis. Premium and fees are
// per contract; totals scale with the option's quantity.
type Position struct {
	ID           uuid.UUID
	Option       options.Option
	Premium      positive.Positive
	OpenedAt     time.Time
	OpenFee      positive.Positive
	CloseFee     positive.Positive
	ClosedAt     *time.Time
	ClosePremium *positive.Positive
}

// Bound is a profit or loss extreme. Unbounded positions leave Value zero.
type Bound struct {
	Value     decimal.Decimal
	Unbounded bool
}

func bounded(v decimal.Decimal) Bound { return Bound{Value: v} }

func (b Bound) String() string {
	if b.Unbounded {
		return "unbounded"
	}
	return b.Value.String()
}

type SpreadKind int

const (
	BullPut SpreadKind = iota
	BearCall
	BullCall
	BearPut
)

func (k SpreadKind) String() string {
	switch k {
	case BearCall:
		return "Bear Call"
	case BullCall:
		return "Bull Call"
	case BearPut:
		return "Bear Put"
	}
	return "Bull Put"
}

// IsCredit reports whether the spread opens for a net credit.
func (k SpreadKind) IsCredit() bool { return k == BullPut || k == BearCall }

// Progress receives one increment per evaluated candidate. *mpb.Bar
// satisfies it.
type Progress interface {
	Increment()
}

// ScanConfig tunes FindCreditSpreadsContext.
type ScanConfig struct {
	MinReturnOnRisk decimal.Decimal
	// Quantity of both legs; zero means one contract.
	Quantity positive.Positive
	OpenFee  positive.Positive
	CloseFee positive.Positive
	// Now stamps the opened positions; zero means time.Now.
	Now time.Time
	// Workers defaults to GOMAXPROCS.
	Workers  int
	Progress Progress
}
