package models

import (
	"context"
	"math"
	mathrand "math/rand"

	"github.com/MaxHalford/eaopt"
	"github.com/bcdannyboy/optionlab/errs"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
)

// HestonModel is dv = κ(θ − v)dt + ξ√v dW₂ with corr(dW₁, dW₂) = ρ.
type HestonModel struct {
	V0    float64 // initial variance
	Kappa float64 // mean reversion speed
	Theta float64 // long-run variance
	Xi    float64 // vol of variance
	Rho   float64
}

func (h HestonModel) Validate() error {
	if h.V0 < 0 || h.Xi < 0 || h.Rho < -1 || h.Rho > 1 {
		return errs.Domain("models.HestonModel", "v0=%v xi=%v rho=%v out of range", h.V0, h.Xi, h.Rho)
	}
	if h.Kappa <= 0 || h.Theta <= 0 {
		return errs.Stability("models.HestonModel", "kappa=%v theta=%v does not mean-revert", h.Kappa, h.Theta)
	}
	return nil
}

// step advances variance one Euler step with full truncation: drift and
// diffusion read max(v, 0) and the stored variance is floored at zero.
func (h HestonModel) step(v, dt, z float64) float64 {
	vp := math.Max(v, 0)
	next := v + h.Kappa*(h.Theta-vp)*dt + h.Xi*math.Sqrt(vp*dt)*z
	return math.Max(next, 0)
}

// SimulateVariance returns steps volatility samples √v spaced dt apart; the
// first is √v0. The same seed always yields the same path.
func (h HestonModel) SimulateVariance(v0, dt float64, steps int, seed uint64) ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if v0 < 0 || dt <= 0 || steps <= 0 {
		return nil, errs.Domain("models.SimulateVariance", "v0=%v dt=%v steps=%d", v0, dt, steps)
	}
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, steps)
	v := v0
	out[0] = math.Sqrt(v)
	for i := 1; i < steps; i++ {
		v = h.step(v, dt, rng.NormFloat64())
		out[i] = math.Sqrt(v)
	}
	return out, nil
}

// TerminalPrice evolves the log price alongside the variance and returns
// the price after t years.
func (h HestonModel) TerminalPrice(s0, r, t float64, steps int, rng *rand.Rand) float64 {
	dt := t / float64(steps)
	sqrtDt := math.Sqrt(dt)
	s, v := s0, h.V0
	for i := 0; i < steps; i++ {
		z1 := rng.NormFloat64()
		z2 := h.Rho*z1 + math.Sqrt(1-h.Rho*h.Rho)*rng.NormFloat64()
		vp := math.Max(v, 0)
		s *= math.Exp((r-0.5*vp)*dt + math.Sqrt(vp)*sqrtDt*z1)
		v = h.step(v, dt, z2)
	}
	return s
}

// SimulatePrice returns one terminal price of the underlying after t years.
func (h HestonModel) SimulatePrice(s0, r, t float64, steps int, seed uint64) (float64, error) {
	if err := checkPathArgs("models.SimulatePrice", h, s0, t, steps); err != nil {
		return 0, err
	}
	return h.TerminalPrice(s0, r, t, steps, rand.New(rand.NewSource(seed))), nil
}

// SimulatePricesBatch draws n terminal prices; path i matches
// SimulatePrice with seed+i.
func (h HestonModel) SimulatePricesBatch(s0, r, t float64, steps, n int, seed uint64) ([]float64, error) {
	return SimulateTerminalPrices(context.Background(), h, s0, r, t, steps, n, seed)
}

// CallPrice is the Monte Carlo price of a European call under h.
func (h HestonModel) CallPrice(s0, k, r, t float64, steps, paths int, seed uint64) (float64, error) {
	return MonteCarloCall(h, s0, k, r, t, steps, paths, seed)
}

// CalibrationSettings control Calibrate. With Agents and Generations set, a
// differential evolution search over HestonBounds picks the Nelder-Mead
// starting point; otherwise the search starts from the receiver.
type CalibrationSettings struct {
	Steps       int
	Paths       int
	Seed        uint64
	Evaluations int
	Agents      uint
	Generations uint
}

var DefaultCalibration = CalibrationSettings{Steps: 50, Paths: 500, Seed: 1, Evaluations: 400, Agents: 20, Generations: 15}

// HestonBounds is the box searched globally, ordered v0, κ, θ, ξ, ρ.
var HestonBounds = [5][2]float64{
	{1e-4, 1},
	{0.01, 10},
	{1e-4, 1},
	{0.01, 2},
	{-0.99, 0.99},
}

// fromUnit maps a point of the unit cube onto HestonBounds, clamping
// coordinates that evolution pushed outside it.
func fromUnit(u []float64) HestonModel {
	var x [5]float64
	for i, b := range HestonBounds {
		x[i] = b[0] + math.Min(math.Max(u[i], 0), 1)*(b[1]-b[0])
	}
	return HestonModel{V0: x[0], Kappa: x[1], Theta: x[2], Xi: x[3], Rho: x[4]}
}

func globalSearch(objective func(HestonModel) float64, cs CalibrationSettings) (HestonModel, error) {
	de, err := eaopt.NewDiffEvo(cs.Agents, cs.Generations, 0, 1, 0.5, 0.2, false, mathrand.New(mathrand.NewSource(int64(cs.Seed))))
	if err != nil {
		return HestonModel{}, errs.Numeric("models.Calibrate", "differential evolution: %v", err)
	}
	best, _, err := de.Minimize(func(u []float64) float64 { return objective(fromUnit(u)) }, 5)
	if err != nil {
		return HestonModel{}, errs.Numeric("models.Calibrate", "differential evolution: %v", err)
	}
	return fromUnit(best), nil
}

// Calibrate fits all five parameters to call prices by Nelder-Mead on the
// mean squared pricing error. Every evaluation reuses the same seed so the
// objective is deterministic. The receiver is returned when no better fit
// is found.
func (h HestonModel) Calibrate(marketPrices, strikes []float64, s0, r, t float64, cs CalibrationSettings) (HestonModel, error) {
	if len(marketPrices) == 0 || len(marketPrices) != len(strikes) {
		return h, errs.Domain("models.Calibrate", "%d prices for %d strikes", len(marketPrices), len(strikes))
	}
	if err := checkPathArgs("models.Calibrate", h, s0, t, cs.Steps); err != nil {
		return h, err
	}

	objective := func(m HestonModel) float64 {
		if m.Validate() != nil {
			return math.MaxFloat64 / 4
		}
		prices, err := m.SimulatePricesBatch(s0, r, t, cs.Steps, cs.Paths, cs.Seed)
		if err != nil {
			return math.MaxFloat64 / 4
		}
		mse := 0.0
		for i, k := range strikes {
			sum := 0.0
			for _, p := range prices {
				sum += math.Max(p-k, 0)
			}
			diff := math.Exp(-r*t)*sum/float64(len(prices)) - marketPrices[i]
			mse += diff * diff
		}
		return mse / float64(len(strikes))
	}

	start := h
	if cs.Agents > 0 && cs.Generations > 0 {
		g, err := globalSearch(objective, cs)
		if err != nil {
			return h, err
		}
		if objective(g) < objective(start) {
			start = g
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return objective(HestonModel{V0: x[0], Kappa: x[1], Theta: x[2], Xi: x[3], Rho: x[4]})
		},
	}
	settings := &optimize.Settings{FuncEvaluations: cs.Evaluations}
	result, err := optimize.Minimize(problem, []float64{start.V0, start.Kappa, start.Theta, start.Xi, start.Rho}, settings, &optimize.NelderMead{})
	if err != nil && result == nil {
		return h, errs.Numeric("models.Calibrate", "optimizer: %v", err)
	}
	fit := HestonModel{V0: result.X[0], Kappa: result.X[1], Theta: result.X[2], Xi: result.X[3], Rho: result.X[4]}
	if fit.Validate() != nil || objective(fit) > objective(start) {
		fit = start
	}
	if objective(fit) > objective(h) {
		return h, nil
	}
	return fit, nil
}
