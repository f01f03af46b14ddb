package models

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// GARCH11 is σ²_t = ω + α r²_{t−1} + β σ²_{t−1}.
type GARCH11 struct {
	Omega float64
	Alpha float64
	Beta  float64
}

// Validate requires ω > 0, α, β ≥ 0 and α + β < 1 so the long-run variance
// exists.
func (g GARCH11) Validate() error {
	if g.Omega <= 0 || g.Alpha < 0 || g.Beta < 0 || g.Alpha+g.Beta >= 1 {
		return errs.Stability("models.GARCH11", "omega=%v alpha=%v beta=%v is not stationary", g.Omega, g.Alpha, g.Beta)
	}
	return nil
}

func (g GARCH11) longRunVariance() float64 {
	return g.Omega / (1 - g.Alpha - g.Beta)
}

// Volatility returns the conditional volatility path. The recursion is
// seeded with σ²₀ = r₀², so out[0] is |returns[0]|.
func (g GARCH11) Volatility(returns []float64) ([]float64, error) {
	if len(returns) == 0 {
		return nil, errs.Domain("models.GARCH11.Volatility", "empty returns")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	out := make([]float64, len(returns))
	variance := returns[0] * returns[0]
	out[0] = math.Sqrt(variance)
	for t := 1; t < len(returns); t++ {
		variance = g.Omega + g.Alpha*returns[t-1]*returns[t-1] + g.Beta*variance
		out[t] = math.Sqrt(variance)
	}
	return out, nil
}

// LogLikelihood is the Gaussian log-likelihood of returns under g.
func (g GARCH11) LogLikelihood(returns []float64) float64 {
	logLik := 0.0
	variance := g.longRunVariance()
	for i := 1; i < len(returns); i++ {
		variance = g.Omega + g.Alpha*returns[i-1]*returns[i-1] + g.Beta*variance
		logLik += -0.5*math.Log(2*math.Pi) - 0.5*math.Log(variance) - 0.5*returns[i]*returns[i]/variance
	}
	return logLik
}

// ConditionalVolatility is the last conditional volatility, annualised over
// TradingDaysPerYear.
func (g GARCH11) ConditionalVolatility(returns []float64) (float64, error) {
	path, err := g.Volatility(returns)
	if err != nil {
		return 0, err
	}
	last := path[len(path)-1]
	return AnnualizedVolatility(last, TradingDaysPerYear)
}

const (
	garchIterations = 2000
	garchBurnIn     = 200
	garchStep       = 0.01
)

// EstimateGARCH11 fits g to returns by maximum likelihood. A seeded
// Metropolis chain averages out a starting point which Nelder-Mead then
// refines; when the refined optimum is not stationary the chain average is
// returned instead.
func EstimateGARCH11(returns []float64, seed uint64) (GARCH11, error) {
	if len(returns) < 2 {
		return GARCH11{}, errs.Domain("models.EstimateGARCH11", "need at least 2 returns, got %d", len(returns))
	}

	src := rand.NewSource(seed)
	step := distuv.Normal{Mu: 0, Sigma: garchStep, Src: src}
	unif := distuv.Uniform{Min: 0, Max: 1, Src: src}

	current := GARCH11{Omega: 1e-6, Alpha: 0.1, Beta: 0.8}
	currentLL := current.LogLikelihood(returns)
	var sum GARCH11
	for i := 1; i < garchIterations; i++ {
		proposal := GARCH11{
			Omega: current.Omega + step.Rand()*1e-4,
			Alpha: current.Alpha + step.Rand(),
			Beta:  current.Beta + step.Rand(),
		}
		if proposal.Validate() == nil {
			ll := proposal.LogLikelihood(returns)
			if math.Log(unif.Rand()) < ll-currentLL {
				current, currentLL = proposal, ll
			}
		}
		if i >= garchBurnIn {
			sum.Omega += current.Omega
			sum.Alpha += current.Alpha
			sum.Beta += current.Beta
		}
	}
	kept := float64(garchIterations - garchBurnIn)
	avg := GARCH11{Omega: sum.Omega / kept, Alpha: sum.Alpha / kept, Beta: sum.Beta / kept}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			g := GARCH11{Omega: x[0], Alpha: x[1], Beta: x[2]}
			if g.Validate() != nil {
				return math.MaxFloat64 / 4
			}
			return -g.LogLikelihood(returns)
		},
	}
	result, err := optimize.Minimize(problem, []float64{avg.Omega, avg.Alpha, avg.Beta}, nil, &optimize.NelderMead{})
	if err != nil {
		return avg, nil
	}
	fit := GARCH11{Omega: result.X[0], Alpha: result.X[1], Beta: result.X[2]}
	if fit.Validate() != nil || math.IsNaN(fit.LogLikelihood(returns)) {
		return avg, nil
	}
	return fit, nil
}
