package models

import (
	"errors"
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/surfaces"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/rand"
)

// LocalVolatility reads σ from a surface over (moneyness, years). Queries
// outside the surface are clamped to its edges; nodes missing from a ragged
// grid fall back to the closest sample.
func LocalVolatility(surface *surfaces.Surface, moneyness, t float64) (float64, error) {
	if surface == nil || surface.IsEmpty() {
		return 0, errs.Domain("models.LocalVolatility", "empty volatility surface")
	}
	xr, yr := surface.XRange(), surface.YRange()
	x := clampDecimal(decimal.NewFromFloat(moneyness), xr.Min, xr.Max)
	y := clampDecimal(decimal.NewFromFloat(t), yr.Min, yr.Max)

	p, err := surface.Bilinear(x, y)
	if errors.Is(err, errs.ErrOutOfDomain) || errors.Is(err, errs.ErrInsufficientData) {
		p, err = surface.ClosestPoint(x, y)
	}
	if err != nil {
		return 0, err
	}
	return p.Z.InexactFloat64(), nil
}

func clampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}

// SimulateLocalVolPath evolves a GBM path whose volatility at each step is
// looked up at (S_t / s0, t). The returned path has steps+1 prices.
func SimulateLocalVolPath(s0, r float64, surface *surfaces.Surface, t float64, steps int, seed uint64) ([]float64, error) {
	if s0 <= 0 || t <= 0 || steps <= 0 {
		return nil, errs.Domain("models.SimulateLocalVolPath", "s0=%v t=%v steps=%d", s0, t, steps)
	}
	rng := rand.New(rand.NewSource(seed))
	dt := t / float64(steps)
	sqrtDt := math.Sqrt(dt)

	path := make([]float64, steps+1)
	path[0] = s0
	for i := 0; i < steps; i++ {
		vol, err := LocalVolatility(surface, path[i]/s0, float64(i)*dt)
		if err != nil {
			return nil, err
		}
		path[i+1] = path[i] * math.Exp((r-0.5*vol*vol)*dt+vol*sqrtDt*rng.NormFloat64())
	}
	return path, nil
}
