// Package series groups option chains that share strike geometry across
// several expiries.
package series

import (
	"context"
	"sort"
	"time"

	"github.com/bcdannyboy/optionlab/chains"
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/bcdannyboy/optionlab/surfaces"
)

// Progress receives one increment per finished chain. *mpb.Bar satisfies it.
type Progress interface {
	Increment()
}

type OptionSeries struct {
	Params      chains.ChainBuildParams
	Expirations []positive.Positive

	chains map[string]*chains.OptionChain
}

func key(days positive.Positive) string { return days.String() }

// sortedDays validates and orders the expiries; zero and repeated days are
// rejected.
func sortedDays(days []positive.Positive) ([]positive.Positive, error) {
	if len(days) == 0 {
		return nil, errs.Domain("series.Build", "no expirations")
	}
	out := make([]positive.Positive, len(days))
	copy(out, days)
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	for i, d := range out {
		if d.IsZero() {
			return nil, errs.Domain("series.Build", "zero days to expiry")
		}
		if i > 0 && out[i-1].Equal(d) {
			return nil, errs.Domain("series.Build", "duplicate expiry %s days", d)
		}
	}
	return out, nil
}

// Build builds one chain per expiry from params.
func Build(params chains.ChainBuildParams, days []positive.Positive, now time.Time) (*OptionSeries, error) {
	return BuildWithProgress(context.Background(), params, days, now, nil)
}

// BuildWithProgress builds the chains in parallel under ctx, reporting each
// finished chain to progress when it is not nil.
func BuildWithProgress(ctx context.Context, params chains.ChainBuildParams, days []positive.Positive, now time.Time, progress Progress) (*OptionSeries, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	exps, err := sortedDays(days)
	if err != nil {
		return nil, err
	}
	defer logger.LogDuration(ctx, "built option series", "symbol", params.Symbol, "expirations", len(exps))()

	built, err := geometrics.Evaluate(ctx, len(exps), func(i int) (*chains.OptionChain, error) {
		p := params
		p.Price.ExpirationDays = exps[i]
		c, err := chains.BuildContext(ctx, p, now)
		if err != nil {
			return nil, err
		}
		if progress != nil {
			progress.Increment()
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	s := &OptionSeries{Params: params, Expirations: exps, chains: make(map[string]*chains.OptionChain, len(exps))}
	for i, c := range built {
		s.chains[key(exps[i])] = c
	}
	return s, nil
}

// Chains returns the chains ordered by expiry.
func (s *OptionSeries) Chains() []*chains.OptionChain {
	out := make([]*chains.OptionChain, len(s.Expirations))
	for i, d := range s.Expirations {
		out[i] = s.chains[key(d)]
	}
	return out
}

func (s *OptionSeries) Chain(days positive.Positive) (*chains.OptionChain, bool) {
	c, ok := s.chains[key(days)]
	return c, ok
}

func (s *OptionSeries) Len() int { return len(s.Expirations) }

// update runs mutate on copies of every chain and swaps them in only when all
// succeed, so a failure leaves the series untouched.
func (s *OptionSeries) update(mutate func(c *chains.OptionChain) error) error {
	next := make(map[string]*chains.OptionChain, len(s.chains))
	for k, c := range s.chains {
		n := c.Clone()
		if err := mutate(n); err != nil {
			return err
		}
		next[k] = n
	}
	s.chains = next
	return nil
}

// SetUnderlyingPrice moves the underlying of the build params and of every chain.
func (s *OptionSeries) SetUnderlyingPrice(price positive.Positive) error {
	err := s.update(func(c *chains.OptionChain) error { return c.SetUnderlyingPrice(price) })
	if err != nil {
		return err
	}
	s.Params.Price.UnderlyingPrice = price
	return nil
}

// SetImpliedVolatility resets the volatility level of the build params and of
// every chain.
func (s *OptionSeries) SetImpliedVolatility(vol positive.Positive) error {
	err := s.update(func(c *chains.OptionChain) error { return c.SetImpliedVolatility(vol) })
	if err != nil {
		return err
	}
	s.Params.Volatility = vol
	return nil
}

// Roll moves the series elapsed days forward to now. Chains that expire
// within elapsed are dropped; the rest are repriced and re-dated.
func (s *OptionSeries) Roll(elapsed positive.Positive, now time.Time) error {
	if elapsed.IsZero() {
		return nil
	}
	var exps []positive.Positive
	next := make(map[string]*chains.OptionChain, len(s.chains))
	for _, d := range s.Expirations {
		left, err := d.Sub(elapsed)
		if err != nil || left.IsZero() {
			continue
		}
		n := s.chains[key(d)].Clone()
		if err := n.SetExpirationDays(left, now); err != nil {
			return err
		}
		exps = append(exps, left)
		next[key(left)] = n
	}
	if len(exps) == 0 {
		return errs.Domain("series.Roll", "every expiry is within %s days", elapsed)
	}
	s.Expirations = exps
	s.chains = next
	return nil
}

// Surface lays each chain's axis curve out over (strike, days to expiry).
func (s *OptionSeries) Surface(axis chains.GreekAxis, style options.OptionStyle, side options.Side) (*surfaces.Surface, error) {
	var pts []geometrics.Point3D
	for _, d := range s.Expirations {
		curve, err := s.chains[key(d)].Curve(axis, style, side)
		if err != nil {
			return nil, err
		}
		for _, p := range curve.Points() {
			pts = append(pts, geometrics.Point3D{X: p.X, Y: d.Decimal(), Z: p.Y})
		}
	}
	return surfaces.FromPoints(pts)
}
