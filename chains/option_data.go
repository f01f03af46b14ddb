package chains

import (
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/shopspring/decimal"
)

// OptionData is one strike of a chain. Invalid NullDecimals and nil counts
// are unknown values.
type OptionData struct {
	Strike            positive.Positive
	CallBid           decimal.NullDecimal
	CallAsk           decimal.NullDecimal
	PutBid            decimal.NullDecimal
	PutAsk            decimal.NullDecimal
	ImpliedVolatility decimal.NullDecimal
	DeltaCall         decimal.NullDecimal
	DeltaPut          decimal.NullDecimal
	Gamma             decimal.NullDecimal
	Volume            *uint64
	OpenInterest      *uint64
}

func known(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

func countEqual(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Equal compares every column; unknown equals unknown.
func (o OptionData) Equal(other OptionData) bool {
	return o.Strike.Equal(other.Strike) &&
		nullEqual(o.CallBid, other.CallBid) &&
		nullEqual(o.CallAsk, other.CallAsk) &&
		nullEqual(o.PutBid, other.PutBid) &&
		nullEqual(o.PutAsk, other.PutAsk) &&
		nullEqual(o.ImpliedVolatility, other.ImpliedVolatility) &&
		nullEqual(o.DeltaCall, other.DeltaCall) &&
		nullEqual(o.DeltaPut, other.DeltaPut) &&
		nullEqual(o.Gamma, other.Gamma) &&
		countEqual(o.Volume, other.Volume) &&
		countEqual(o.OpenInterest, other.OpenInterest)
}

// Volatility returns the implied volatility when it is known and not negative.
func (o OptionData) Volatility() (positive.Positive, bool) {
	if !o.ImpliedVolatility.Valid {
		return positive.ZERO, false
	}
	v, err := positive.New(o.ImpliedVolatility.Decimal)
	return v, err == nil
}

// Mid is the midpoint of the bid and ask of style, when both are known.
func (o OptionData) Mid(style options.OptionStyle) (decimal.Decimal, bool) {
	bid, ask := o.CallBid, o.CallAsk
	if style == options.Put {
		bid, ask = o.PutBid, o.PutAsk
	}
	if !bid.Valid || !ask.Valid {
		return decimal.Zero, false
	}
	return bid.Decimal.Add(ask.Decimal).Div(decimal.NewFromInt(2)), true
}

// quote applies the half spread around price: ask above, bid below, both
// rounded. A price under the half spread has no quote.
func quote(price, halfSpread decimal.Decimal, places int32) (bid, ask decimal.NullDecimal) {
	if price.LessThan(halfSpread) {
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	}
	return known(price.Sub(halfSpread).Round(places)), known(price.Add(halfSpread).Round(places))
}
