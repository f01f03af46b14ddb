package chains

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/bcdannyboy/optionlab/pricing"
	"github.com/shopspring/decimal"
)

// ExpirationLayout formats chain expiration labels.
const ExpirationLayout = "2006-01-02"

var (
	minVol = decimal.NewFromFloat(pricing.MinVolatility)
	maxVol = decimal.NewFromFloat(pricing.MaxVolatility)
)

// OptionChain holds the rows of one expiry ordered strictly by strike.
// Built chains remember their build parameters so the mutators can requote
// them; loaded chains only refresh their Greeks.
type OptionChain struct {
	Symbol          string
	UnderlyingPrice positive.Positive
	Expiration      string
	RiskFreeRate    decimal.NullDecimal
	DividendYield   decimal.NullDecimal

	rows   []OptionData
	days   positive.Positive
	params *ChainBuildParams
	atm    decimal.Decimal
}

// New returns an empty chain. days is the time to expiry used to price rows.
func New(symbol string, underlying positive.Positive, expiration string, days positive.Positive) *OptionChain {
	return &OptionChain{
		Symbol:          symbol,
		UnderlyingPrice: underlying,
		Expiration:      expiration,
		days:            days,
	}
}

func expirationLabel(now time.Time, days positive.Positive) string {
	return now.Add(time.Duration(days.Float64() * float64(24*time.Hour))).Format(ExpirationLayout)
}

// daysUntil is the whole-day distance from now to an expiration label; past
// and unparsable labels give zero.
func daysUntil(label string, now time.Time) positive.Positive {
	exp, err := time.Parse(ExpirationLayout, label)
	if err != nil {
		return positive.ZERO
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := exp.Sub(today).Hours() / 24
	if days <= 0 {
		return positive.ZERO
	}
	return positive.MustNewFromFloat(days)
}

// Build prices a strike ladder of 2·ChainSize+1 strikes around the
// underlying. now only dates the expiration label.
func Build(params ChainBuildParams, now time.Time) (*OptionChain, error) {
	return BuildContext(context.Background(), params, now)
}

// BuildContext is Build with rows priced in parallel under ctx.
func BuildContext(ctx context.Context, params ChainBuildParams, now time.Time) (*OptionChain, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	defer logger.LogDuration(ctx, "built option chain", "symbol", params.Symbol, "size", params.ChainSize)()

	c := New(params.Symbol, params.Price.UnderlyingPrice, expirationLabel(now, params.Price.ExpirationDays), params.Price.ExpirationDays)
	c.RiskFreeRate = known(params.Price.RiskFreeRate)
	c.DividendYield = known(params.Price.DividendYield.Decimal())
	c.params = &params
	c.atm = params.atmStrike()

	interval := params.StrikeInterval.Decimal()
	var strikes []positive.Positive
	for i := -params.ChainSize; i <= params.ChainSize; i++ {
		k := c.atm.Add(interval.Mul(decimal.NewFromInt(int64(i))))
		if !k.IsPositive() {
			continue
		}
		strikes = append(strikes, positive.MustNew(k))
	}

	rows, err := geometrics.Evaluate(ctx, len(strikes), func(i int) (OptionData, error) {
		row := OptionData{
			Strike:            strikes[i],
			ImpliedVolatility: known(params.volatilityAt(strikes[i].Decimal(), c.atm).Decimal()),
		}
		if params.Volume != nil {
			v := *params.Volume
			row.Volume = &v
		}
		err := c.quoteRow(&row)
		return row, err
	})
	if err != nil {
		return nil, err
	}
	c.rows = rows
	return c, nil
}

func (c *OptionChain) rate() decimal.Decimal {
	if c.RiskFreeRate.Valid {
		return c.RiskFreeRate.Decimal
	}
	return decimal.Zero
}

func (c *OptionChain) dividend() positive.Positive {
	if !c.DividendYield.Valid {
		return positive.ZERO
	}
	q, err := positive.New(c.DividendYield.Decimal)
	if err != nil {
		return positive.ZERO
	}
	return q
}

// option is the single long European contract of style at strike.
func (c *OptionChain) option(strike, vol positive.Positive, style options.OptionStyle) options.Option {
	return options.Option{
		Style:             style,
		Side:              options.Long,
		Type:              options.European,
		UnderlyingSymbol:  c.Symbol,
		Strike:            strike,
		Expiration:        options.Days(c.days),
		ImpliedVolatility: vol,
		Quantity:          positive.ONE,
		UnderlyingPrice:   c.UnderlyingPrice,
		RiskFreeRate:      c.rate(),
		DividendYield:     c.dividend(),
	}
}

// quoteRow prices both sides of row at its implied volatility, spreads
// them by the build parameters and refreshes the Greeks.
func (c *OptionChain) quoteRow(row *OptionData) error {
	vol, ok := row.Volatility()
	if !ok || c.params == nil {
		return nil
	}
	call, err := pricing.BlackScholes(c.option(row.Strike, vol, options.Call))
	if err != nil {
		return err
	}
	put, err := pricing.BlackScholes(c.option(row.Strike, vol, options.Put))
	if err != nil {
		return err
	}
	half := c.params.Spread.Decimal().Div(decimal.NewFromInt(2))
	row.CallBid, row.CallAsk = quote(call, half, c.params.DecimalPlaces)
	row.PutBid, row.PutAsk = quote(put, half, c.params.DecimalPlaces)
	return c.greeksRow(row)
}

func (c *OptionChain) greeksRow(row *OptionData) error {
	vol, ok := row.Volatility()
	if !ok {
		return nil
	}
	cg, err := pricing.CalculateGreeks(c.option(row.Strike, vol, options.Call))
	if err != nil {
		return err
	}
	pg, err := pricing.CalculateGreeks(c.option(row.Strike, vol, options.Put))
	if err != nil {
		return err
	}
	row.DeltaCall = known(cg.Delta)
	row.DeltaPut = known(pg.Delta)
	row.Gamma = known(cg.Gamma)
	return nil
}

// OptionAt is one contract of style at strike, priced off the row's
// implied volatility and the chain's market inputs.
func (c *OptionChain) OptionAt(strike positive.Positive, style options.OptionStyle, side options.Side) (options.Option, error) {
	row, ok := c.Row(strike)
	if !ok {
		return options.Option{}, errs.Domain("chains.OptionAt", "no row at strike %s", strike)
	}
	vol, ok := row.Volatility()
	if !ok {
		return options.Option{}, errs.Domain("chains.OptionAt", "strike %s has no implied volatility", strike)
	}
	return c.option(strike, vol, style).WithSide(side), nil
}

// AddOption inserts row keeping strikes strictly ascending.
func (c *OptionChain) AddOption(row OptionData) error {
	if row.Strike.IsZero() {
		return errs.Domain("chains.AddOption", "strike must be positive")
	}
	i := sort.Search(len(c.rows), func(i int) bool { return c.rows[i].Strike.GreaterThanOrEqual(row.Strike) })
	if i < len(c.rows) && c.rows[i].Strike.Equal(row.Strike) {
		return errs.DegenerateGrid("chains.AddOption", "duplicate strike %s", row.Strike)
	}
	c.rows = append(c.rows, OptionData{})
	copy(c.rows[i+1:], c.rows[i:])
	c.rows[i] = row
	return nil
}

// Rows returns a copy of the rows in strike order.
func (c *OptionChain) Rows() []OptionData {
	out := make([]OptionData, len(c.rows))
	copy(out, c.rows)
	return out
}

func (c *OptionChain) Len() int { return len(c.rows) }

func (c *OptionChain) Strikes() []positive.Positive {
	out := make([]positive.Positive, len(c.rows))
	for i, r := range c.rows {
		out[i] = r.Strike
	}
	return out
}

// Row looks up the row at strike.
func (c *OptionChain) Row(strike positive.Positive) (OptionData, bool) {
	i := sort.Search(len(c.rows), func(i int) bool { return c.rows[i].Strike.GreaterThanOrEqual(strike) })
	if i < len(c.rows) && c.rows[i].Strike.Equal(strike) {
		return c.rows[i], true
	}
	return OptionData{}, false
}

// ATMStrike is the strike nearest the underlying; ties go to the lower one.
func (c *OptionChain) ATMStrike() (positive.Positive, error) {
	if len(c.rows) == 0 {
		return positive.ZERO, errs.InsufficientData("chains.ATMStrike", "empty chain")
	}
	best := c.rows[0].Strike
	bestDist := c.rows[0].Strike.SubDecimal(c.UnderlyingPrice.Decimal()).Abs()
	for _, r := range c.rows[1:] {
		if d := r.Strike.SubDecimal(c.UnderlyingPrice.Decimal()).Abs(); d.LessThan(bestDist) {
			best, bestDist = r.Strike, d
		}
	}
	return best, nil
}

// ExpirationDays is the time to expiry the chain prices with.
func (c *OptionChain) ExpirationDays() positive.Positive { return c.days }

// SetExpirationDays reprices the chain days from now and re-dates its
// expiration label so a saved chain reloads at the same expiry.
func (c *OptionChain) SetExpirationDays(days positive.Positive, now time.Time) error {
	return c.apply(func(n *OptionChain) {
		n.days = days
		n.Expiration = expirationLabel(now, days)
		if n.params != nil {
			n.params.Price.ExpirationDays = days
		}
	})
}

// Clone returns a deep copy of c.
func (c *OptionChain) Clone() *OptionChain {
	n := *c
	n.rows = make([]OptionData, len(c.rows))
	copy(n.rows, c.rows)
	if c.params != nil {
		p := *c.params
		n.params = &p
	}
	return &n
}

// apply mutates a copy of c, reprices it and swaps it in only when every row
// priced.
func (c *OptionChain) apply(mutate func(n *OptionChain)) error {
	n := c.Clone()
	mutate(n)
	if err := n.refresh(context.Background()); err != nil {
		return err
	}
	*c = *n
	return nil
}

// ContractSize is the units of underlying per contract. Loaded chains do not
// persist it and count one.
func (c *OptionChain) ContractSize() positive.Positive {
	if c.params == nil {
		return positive.ONE
	}
	return c.params.ContractSize
}

// ContractValue converts a per-unit amount into cash per contract.
func (c *OptionChain) ContractValue(perUnit decimal.Decimal) decimal.Decimal {
	return c.ContractSize().MulDecimal(perUnit)
}

// Params returns a copy of the build parameters, if the chain was built.
func (c *OptionChain) Params() (ChainBuildParams, bool) {
	if c.params == nil {
		return ChainBuildParams{}, false
	}
	return *c.params, true
}

// UpdateGreeks recomputes the delta and gamma columns of every row with a
// known volatility.
func (c *OptionChain) UpdateGreeks() error {
	_, err := geometrics.Evaluate(context.Background(), len(c.rows), func(i int) (struct{}, error) {
		return struct{}{}, c.greeksRow(&c.rows[i])
	})
	return err
}

// refresh requotes built chains and refreshes the Greeks of loaded ones.
func (c *OptionChain) refresh(ctx context.Context) error {
	if c.params == nil {
		return c.UpdateGreeks()
	}
	_, err := geometrics.Evaluate(ctx, len(c.rows), func(i int) (struct{}, error) {
		return struct{}{}, c.quoteRow(&c.rows[i])
	})
	return err
}

// SetUnderlyingPrice moves the underlying, keeping the strike ladder.
func (c *OptionChain) SetUnderlyingPrice(price positive.Positive) error {
	if price.IsZero() {
		return errs.Domain("chains.SetUnderlyingPrice", "underlying price must be positive")
	}
	return c.apply(func(n *OptionChain) {
		n.UnderlyingPrice = price
		if n.params != nil {
			n.params.Price.UnderlyingPrice = price
		}
	})
}

// SetImpliedVolatility resets the volatility level. Built chains reapply
// their skew and smile around the new level; loaded chains take it flat.
func (c *OptionChain) SetImpliedVolatility(vol positive.Positive) error {
	if vol.Decimal().LessThan(minVol) || vol.Decimal().GreaterThan(maxVol) {
		return errs.Domain("chains.SetImpliedVolatility", "volatility %s outside [%s, %s]", vol, minVol, maxVol)
	}
	return c.apply(func(n *OptionChain) {
		if n.params != nil {
			n.params.Volatility = vol
		}
		for i := range n.rows {
			if n.params != nil {
				n.rows[i].ImpliedVolatility = known(n.params.volatilityAt(n.rows[i].Strike.Decimal(), n.atm).Decimal())
			} else {
				n.rows[i].ImpliedVolatility = known(vol.Decimal())
			}
		}
	})
}

// Equal compares the persisted fields of two chains.
func (c *OptionChain) Equal(other *OptionChain) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Symbol != other.Symbol || !c.UnderlyingPrice.Equal(other.UnderlyingPrice) || c.Expiration != other.Expiration ||
		!nullEqual(c.RiskFreeRate, other.RiskFreeRate) || !nullEqual(c.DividendYield, other.DividendYield) ||
		len(c.rows) != len(other.rows) {
		return false
	}
	for i := range c.rows {
		if !c.rows[i].Equal(other.rows[i]) {
			return false
		}
	}
	return true
}

func (c *OptionChain) String() string {
	return fmt.Sprintf("%s %s exp %s (%d strikes)", c.Symbol, c.UnderlyingPrice, c.Expiration, len(c.rows))
}
