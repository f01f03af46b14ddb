package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/shopspring/decimal"
)

const DaysInYear = 365

type OptionStyle int

const (
	Call OptionStyle = iota
	Put
)

func (s OptionStyle) String() string {
	if s == Put {
		return "Put"
	}
	return "Call"
}

type Side int

const (
	Long Side = iota
	Short
)

func (s Side) String() string {
	if s == Short {
		return "Short"
	}
	return "Long"
}

// Sign is +1 for Long and -1 for Short.
func (s Side) Sign() decimal.Decimal {
	if s == Short {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

type OptionType int

const (
	European OptionType = iota
	American
	Binary
	Asian
)

func (t OptionType) String() string {
	switch t {
	case American:
		return "American"
	case Binary:
		return "Binary"
	case Asian:
		return "Asian"
	}
	return "European"
}

// IsExotic reports whether the type needs ExoticParams.
func (t OptionType) IsExotic() bool { return t == Binary || t == Asian }

// ExoticParams carries the extra terms of exotic contracts.
type ExoticParams struct {
	// Payout is the cash amount of a cash-or-nothing binary.
	Payout positive.Positive
	// Paths and Steps size the Monte Carlo of an Asian option.
	Paths int
	Steps int
	Seed  uint64
}

// Expiration is either a number of days or an absolute date.
type Expiration struct {
	days *positive.Positive
	date *time.Time
}

func Days(d positive.Positive) Expiration { return Expiration{days: &d} }

func Date(t time.Time) Expiration { return Expiration{date: &t} }

func (e Expiration) IsDate() bool { return e.date != nil }

// DaysFrom returns the days to expiry measured from now. Past dates give zero.
func (e Expiration) DaysFrom(now time.Time) positive.Positive {
	if e.days != nil {
		return *e.days
	}
	if e.date == nil {
		return positive.ZERO
	}
	hours := e.date.Sub(now).Hours()
	if hours <= 0 {
		return positive.ZERO
	}
	return positive.MustNew(decimal.NewFromFloat(hours / 24))
}

func (e Expiration) String() string {
	if e.date != nil {
		return e.date.Format("2006-01-02")
	}
	if e.days != nil {
		return e.days.String() + "d"
	}
	return "0d"
}

// Option describes a single contract. Values are immutable; the With* methods
// return modified copies.
type Option struct {
	Style             OptionStyle
	Side              Side
	Type              OptionType
	UnderlyingSymbol  string
	Strike            positive.Positive
	Expiration        Expiration
	ImpliedVolatility positive.Positive
	Quantity          positive.Positive
	UnderlyingPrice   positive.Positive
	RiskFreeRate      decimal.Decimal
	DividendYield     positive.Positive
	Exotic            *ExoticParams

	// Now anchors Date expirations. Nil means time.Now.
	Now func() time.Time
}

func (o Option) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Validate checks the preconditions pricing relies on.
func (o Option) Validate() error {
	if o.Strike.IsZero() {
		return errs.Domain("options.Validate", "strike must be positive")
	}
	if o.UnderlyingPrice.IsZero() {
		return errs.Domain("options.Validate", "underlying price must be positive")
	}
	switch o.Type {
	case Binary:
		if o.Exotic == nil || o.Exotic.Payout.IsZero() {
			return errs.Domain("options.Validate", "binary option requires a payout")
		}
	case Asian:
		if o.Exotic == nil || o.Exotic.Paths <= 0 || o.Exotic.Steps <= 0 {
			return errs.Domain("options.Validate", "asian option requires paths and steps")
		}
	}
	return nil
}

// Title is the canonical human label of the contract.
func (o Option) Title() string {
	var b strings.Builder
	if o.UnderlyingSymbol != "" {
		b.WriteString(strings.ToUpper(o.UnderlyingSymbol))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%s %s %s K=%s exp=%s", o.Side, o.Style, o.Type, o.Strike, o.Expiration)
	return b.String()
}

func (o Option) DaysToExpiry() positive.Positive {
	return o.Expiration.DaysFrom(o.now())
}

// TimeToExpiryYears converts the expiration to a year fraction on a 365-day basis.
func (o Option) TimeToExpiryYears() positive.Positive {
	days := o.DaysToExpiry()
	return positive.MustNew(days.Decimal().Div(decimal.NewFromInt(DaysInYear)))
}

// IntrinsicValue is the per-unit exercise value at the option's own underlying price.
func (o Option) IntrinsicValue() decimal.Decimal {
	return o.IntrinsicValueAt(o.UnderlyingPrice)
}

// IntrinsicValueAt is the per-unit exercise value at spot. Binary options pay
// their fixed amount when in the money.
func (o Option) IntrinsicValueAt(spot positive.Positive) decimal.Decimal {
	var diff decimal.Decimal
	if o.Style == Call {
		diff = spot.Decimal().Sub(o.Strike.Decimal())
	} else {
		diff = o.Strike.Decimal().Sub(spot.Decimal())
	}
	if !diff.IsPositive() {
		return decimal.Zero
	}
	if o.Type == Binary && o.Exotic != nil {
		return o.Exotic.Payout.Decimal()
	}
	return diff
}

// Payoff is the signed expiry value of the whole contract quantity.
func (o Option) Payoff(spot positive.Positive) decimal.Decimal {
	return o.IntrinsicValueAt(spot).Mul(o.Quantity.Decimal()).Mul(o.Side.Sign())
}

func (o Option) WithUnderlyingPrice(p positive.Positive) Option {
	o.UnderlyingPrice = p
	return o
}

func (o Option) WithVolatility(v positive.Positive) Option {
	o.ImpliedVolatility = v
	return o
}

func (o Option) WithExpirationDays(d positive.Positive) Option {
	o.Expiration = Days(d)
	return o
}

func (o Option) WithRiskFreeRate(r decimal.Decimal) Option {
	o.RiskFreeRate = r
	return o
}

func (o Option) WithDividendYield(q positive.Positive) Option {
	o.DividendYield = q
	return o
}

func (o Option) WithSide(s Side) Option {
	o.Side = s
	return o
}

func (o Option) WithStyle(s OptionStyle) Option {
	o.Style = s
	return o
}

func (o Option) WithQuantity(q positive.Positive) Option {
	o.Quantity = q
	return o
}
