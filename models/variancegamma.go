package models

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// VarianceGamma is Brownian motion with drift Theta and volatility Sigma run
// on a gamma clock of unit mean rate and variance rate Nu.
type VarianceGamma struct {
	Sigma float64
	Nu    float64
	Theta float64
}

func (vg VarianceGamma) Validate() error {
	if vg.Sigma <= 0 || vg.Nu <= 0 || math.IsNaN(vg.Theta) {
		return errs.Domain("models.VarianceGamma", "sigma=%v nu=%v theta=%v", vg.Sigma, vg.Nu, vg.Theta)
	}
	if 1-vg.Theta*vg.Nu-0.5*vg.Sigma*vg.Sigma*vg.Nu <= 0 {
		return errs.Stability("models.VarianceGamma", "exponential moment does not exist for sigma=%v nu=%v theta=%v", vg.Sigma, vg.Nu, vg.Theta)
	}
	return nil
}

// omega is the drift correction making e^{−rt}S_t a martingale.
func (vg VarianceGamma) omega() float64 {
	return math.Log(1-vg.Theta*vg.Nu-0.5*vg.Sigma*vg.Sigma*vg.Nu) / vg.Nu
}

func (vg VarianceGamma) TerminalPrice(s0, r, t float64, steps int, rng *rand.Rand) float64 {
	dt := t / float64(steps)
	clock := distuv.Gamma{Alpha: dt / vg.Nu, Beta: 1 / vg.Nu, Src: rng}
	drift := (r + vg.omega()) * dt
	logS := math.Log(s0)
	for i := 0; i < steps; i++ {
		g := clock.Rand()
		logS += drift + vg.Theta*g + vg.Sigma*math.Sqrt(g)*rng.NormFloat64()
	}
	return math.Exp(logS)
}

func (vg VarianceGamma) Mean(t float64) float64 { return vg.Theta * t }

func (vg VarianceGamma) Variance(t float64) float64 {
	return (vg.Sigma*vg.Sigma + vg.Nu*vg.Theta*vg.Theta) * t
}

// Density is the law of the driftless increment X_t at x.
func (vg VarianceGamma) Density(x, t float64) float64 {
	if x == 0 {
		x = 1e-12
	}
	s2 := vg.Sigma * vg.Sigma
	shape := t / vg.Nu
	a := 2*s2/vg.Nu + vg.Theta*vg.Theta
	lg, _ := math.Lgamma(shape)
	logNorm := math.Log(2) + vg.Theta*x/s2 - shape*math.Log(vg.Nu) - 0.5*math.Log(2*math.Pi) - math.Log(vg.Sigma) - lg
	logPow := (shape/2 - 0.25) * math.Log(x*x/a)
	return math.Exp(logNorm+logPow) * BesselK(shape-0.5, math.Sqrt(x*x*a)/s2)
}

// LogLikelihood of returns observed every dt years; −Inf when any return has
// zero density.
func (vg VarianceGamma) LogLikelihood(returns []float64, dt float64) float64 {
	ll := 0.0
	for _, x := range returns {
		d := vg.Density(x, dt)
		if !(d > 0) || math.IsInf(d, 1) {
			return math.Inf(-1)
		}
		ll += math.Log(d)
	}
	return ll
}

// momentGuess matches variance and excess kurtosis with no skew.
func momentGuess(returns []float64, dt float64) VarianceGamma {
	variance := stat.Variance(returns, nil)
	nu := math.Max(stat.ExKurtosis(returns, nil)*dt/3, 0.01)
	return VarianceGamma{Sigma: math.Sqrt(variance / dt), Nu: nu}
}

// FitVarianceGamma maximises the likelihood of returns sampled every dt years
// by Nelder-Mead, starting from a moment match. The start is returned when
// the optimiser cannot improve on it.
func FitVarianceGamma(returns []float64, dt float64) (VarianceGamma, error) {
	const op = "models.FitVarianceGamma"
	if dt <= 0 {
		return VarianceGamma{}, errs.Domain(op, "dt=%v", dt)
	}
	if len(returns) < 10 {
		return VarianceGamma{}, errs.InsufficientData(op, "need at least 10 returns, got %d", len(returns))
	}
	start := momentGuess(returns, dt)
	if err := start.Validate(); err != nil {
		return VarianceGamma{}, err
	}

	objective := func(vg VarianceGamma) float64 {
		if vg.Validate() != nil {
			return math.MaxFloat64 / 4
		}
		ll := vg.LogLikelihood(returns, dt)
		if math.IsInf(ll, -1) || math.IsNaN(ll) {
			return math.MaxFloat64 / 4
		}
		return -ll
	}
	from := func(x []float64) VarianceGamma {
		return VarianceGamma{Sigma: math.Exp(x[0]), Nu: math.Exp(x[1]), Theta: x[2]}
	}
	problem := optimize.Problem{Func: func(x []float64) float64 { return objective(from(x)) }}
	x0 := []float64{math.Log(start.Sigma), math.Log(start.Nu), start.Theta}
	result, err := optimize.Minimize(problem, x0, &optimize.Settings{FuncEvaluations: 1000}, &optimize.NelderMead{})
	if err != nil && result == nil {
		return start, errs.Numeric(op, "optimizer: %v", err)
	}
	fit := from(result.X)
	if fit.Validate() != nil || objective(fit) > objective(start) {
		return start, nil
	}
	return fit, nil
}
