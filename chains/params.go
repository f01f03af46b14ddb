// Package chains builds, queries and persists option chains: one expiry's
// ladder of strikes with quotes, implied volatility and Greeks per row.
package chains

import (
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/shopspring/decimal"
)

// PriceParams are the market inputs shared by every row of a chain.
type PriceParams struct {
	UnderlyingPrice positive.Positive
	ExpirationDays  positive.Positive
	RiskFreeRate    decimal.Decimal
	DividendYield   positive.Positive
}

// ChainBuildParams drive Build. Volatility is the at-the-money level; the
// skew slope and smile curvature bend it per unit of strike distance.
// Quotes are per unit of underlying; ContractSize is the number of units one
// contract controls.
type ChainBuildParams struct {
	Symbol         string
	ChainSize      int
	StrikeInterval positive.Positive
	SkewSlope      decimal.Decimal
	SmileCurvature decimal.Decimal
	Volatility     positive.Positive
	Price          PriceParams
	ContractSize   positive.Positive
	Spread         positive.Positive
	DecimalPlaces  int32
	Volume         *uint64
}

func (p ChainBuildParams) Validate() error {
	const op = "chains.ChainBuildParams"
	switch {
	case p.Symbol == "":
		return errs.Domain(op, "symbol is required")
	case p.ChainSize < 0:
		return errs.Domain(op, "chain size %d is negative", p.ChainSize)
	case p.StrikeInterval.IsZero():
		return errs.Domain(op, "strike interval must be positive")
	case p.Price.UnderlyingPrice.IsZero():
		return errs.Domain(op, "underlying price must be positive")
	case p.ContractSize.IsZero():
		return errs.Domain(op, "contract size must be positive")
	case p.DecimalPlaces < 0:
		return errs.Domain(op, "decimal places %d is negative", p.DecimalPlaces)
	}
	return nil
}

// atmStrike rounds the underlying to the nearest strike interval, never
// below one interval.
func (p ChainBuildParams) atmStrike() decimal.Decimal {
	interval := p.StrikeInterval.Decimal()
	atm := p.Price.UnderlyingPrice.Decimal().Div(interval).Round(0).Mul(interval)
	if !atm.IsPositive() {
		return interval
	}
	return atm
}

// volatilityAt is base + slope·d + curvature·d² for d = strike − atm,
// clamped to the pricing bounds.
func (p ChainBuildParams) volatilityAt(strike, atm decimal.Decimal) positive.Positive {
	dist := strike.Sub(atm)
	vol := p.Volatility.Decimal().
		Add(p.SkewSlope.Mul(dist)).
		Add(p.SmileCurvature.Mul(dist).Mul(dist))
	vol = decimal.Max(vol, minVol)
	vol = decimal.Min(vol, maxVol)
	return positive.MustNew(vol)
}
