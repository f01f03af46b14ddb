package models

import (
	"context"
	"math"
	"runtime"

	"github.com/bcdannyboy/optionlab/errs"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// PathModel draws risk-neutral terminal prices of the underlying. Models only
// read from rng, so a path is fixed by its seed.
type PathModel interface {
	Validate() error
	TerminalPrice(s0, r, t float64, steps int, rng *rand.Rand) float64
}

// GeometricBrownian is constant-volatility lognormal motion.
type GeometricBrownian struct {
	Sigma float64
}

func (g GeometricBrownian) Validate() error {
	if g.Sigma < 0 || math.IsNaN(g.Sigma) {
		return errs.Domain("models.GeometricBrownian", "sigma=%v", g.Sigma)
	}
	return nil
}

// TerminalPrice samples the exact lognormal law; steps only consume extra
// draws so every model shares the same seed layout.
func (g GeometricBrownian) TerminalPrice(s0, r, t float64, steps int, rng *rand.Rand) float64 {
	dt := t / float64(steps)
	logS := math.Log(s0)
	for i := 0; i < steps; i++ {
		logS += (r-0.5*g.Sigma*g.Sigma)*dt + g.Sigma*math.Sqrt(dt)*rng.NormFloat64()
	}
	return math.Exp(logS)
}

func checkPathArgs(op string, m PathModel, s0, t float64, steps int) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if s0 <= 0 || t <= 0 || steps <= 0 {
		return errs.Domain(op, "s0=%v t=%v steps=%d", s0, t, steps)
	}
	return nil
}

// SimulateTerminalPrices draws n terminal prices; path i uses seed+i, so the
// batch is reproducible however the work is scheduled.
func SimulateTerminalPrices(ctx context.Context, m PathModel, s0, r, t float64, steps, n int, seed uint64) ([]float64, error) {
	if err := checkPathArgs("models.SimulateTerminalPrices", m, s0, t, steps); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, errs.Domain("models.SimulateTerminalPrices", "need a positive path count, got %d", n)
	}
	results := make([]float64, n)
	workers := runtime.GOMAXPROCS(0)
	per := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += per {
		start := start
		end := min(start+per, n)
		g.Go(func() error {
			for j := start; j < end; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[j] = m.TerminalPrice(s0, r, t, steps, rand.New(rand.NewSource(seed+uint64(j))))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloCall discounts the mean call payoff over paths draws of m.
func MonteCarloCall(m PathModel, s0, k, r, t float64, steps, paths int, seed uint64) (float64, error) {
	prices, err := SimulateTerminalPrices(context.Background(), m, s0, r, t, steps, paths, seed)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, p := range prices {
		sum += math.Max(p-k, 0)
	}
	return math.Exp(-r*t) * sum / float64(paths), nil
}
