// Package positive provides Positive, a non-negative decimal.
package positive

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/shopspring/decimal"
)

// Positive is a decimal with the invariant value >= 0. The zero value is ZERO.
type Positive struct {
	value decimal.Decimal
}

var (
	ZERO    = Positive{value: decimal.Zero}
	ONE     = Positive{value: decimal.NewFromInt(1)}
	TWO     = Positive{value: decimal.NewFromInt(2)}
	HUNDRED = Positive{value: decimal.NewFromInt(100)}
)

// New validates d and wraps it.
func New(d decimal.Decimal) (Positive, error) {
	if d.IsNegative() {
		return ZERO, errs.Domain("positive.New", "negative value %s", d)
	}
	return Positive{value: d}, nil
}

func NewFromFloat(f float64) (Positive, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ZERO, errs.Domain("positive.NewFromFloat", "non-finite value %v", f)
	}
	return New(decimal.NewFromFloat(f))
}

func NewFromInt(i int64) (Positive, error) {
	return New(decimal.NewFromInt(i))
}

// MustNew panics when d is negative.
func MustNew(d decimal.Decimal) Positive {
	p, err := New(d)
	if err != nil {
		panic(err)
	}
	return p
}

func MustNewFromFloat(f float64) Positive {
	p, err := NewFromFloat(f)
	if err != nil {
		panic(err)
	}
	return p
}

func MustParse(s string) Positive {
	return MustNew(decimal.RequireFromString(s))
}

func (p Positive) Decimal() decimal.Decimal { return p.value }

func (p Positive) Float64() float64 { return p.value.InexactFloat64() }

func (p Positive) String() string { return p.value.String() }

func (p Positive) IsZero() bool { return p.value.IsZero() }

func (p Positive) Add(o Positive) Positive { return Positive{value: p.value.Add(o.value)} }

func (p Positive) Mul(o Positive) Positive { return Positive{value: p.value.Mul(o.value)} }

// Sub fails when the result would be negative.
func (p Positive) Sub(o Positive) (Positive, error) {
	d := p.value.Sub(o.value)
	if d.IsNegative() {
		return ZERO, errs.Domain("positive.Sub", "%s - %s is negative", p, o)
	}
	return Positive{value: d}, nil
}

// SaturatingSub returns max(p-o, 0).
func (p Positive) SaturatingSub(o Positive) Positive {
	d := p.value.Sub(o.value)
	if d.IsNegative() {
		return ZERO
	}
	return Positive{value: d}
}

func (p Positive) Div(o Positive) (Positive, error) {
	if o.IsZero() {
		return ZERO, errs.Arithmetic("positive.Div", "division by zero")
	}
	return Positive{value: p.value.Div(o.value)}, nil
}

func (p Positive) Sqrt() Positive {
	return Positive{value: decimal.NewFromFloat(math.Sqrt(p.Float64()))}
}

func (p Positive) Round(places int32) Positive {
	return Positive{value: p.value.Round(places)}
}

// Mixed operations widen to a signed decimal.

func (p Positive) AddDecimal(d decimal.Decimal) decimal.Decimal { return p.value.Add(d) }

func (p Positive) SubDecimal(d decimal.Decimal) decimal.Decimal { return p.value.Sub(d) }

func (p Positive) MulDecimal(d decimal.Decimal) decimal.Decimal { return p.value.Mul(d) }

func (p Positive) DivDecimal(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, errs.Arithmetic("positive.DivDecimal", "division by zero")
	}
	return p.value.Div(d), nil
}

func (p Positive) Cmp(o Positive) int { return p.value.Cmp(o.value) }

func (p Positive) Equal(o Positive) bool { return p.value.Equal(o.value) }

func (p Positive) LessThan(o Positive) bool { return p.value.LessThan(o.value) }

func (p Positive) GreaterThan(o Positive) bool { return p.value.GreaterThan(o.value) }

func (p Positive) LessThanOrEqual(o Positive) bool { return p.value.LessThanOrEqual(o.value) }

func (p Positive) GreaterThanOrEqual(o Positive) bool { return p.value.GreaterThanOrEqual(o.value) }

func Max(a, b Positive) Positive {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func Min(a, b Positive) Positive {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MarshalJSON encodes the value as a bare JSON number.
func (p Positive) MarshalJSON() ([]byte, error) {
	return []byte(p.value.String()), nil
}

func (p *Positive) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := New(d)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
