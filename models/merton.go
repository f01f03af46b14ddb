package models

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/pricing"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// JumpThreshold is how many standard deviations from the mean a return has to
// be before the estimators treat it as a jump.
const JumpThreshold = 3.0

// MertonJumpDiffusion adds lognormal jumps arriving at rate Lambda to
// geometric Brownian motion.
type MertonJumpDiffusion struct {
	Sigma  float64 // diffusion volatility
	Lambda float64 // jumps per year
	Mu     float64 // mean log jump
	Delta  float64 // log jump volatility
}

func (m MertonJumpDiffusion) Validate() error {
	if m.Sigma < 0 || m.Lambda < 0 || m.Delta < 0 {
		return errs.Domain("models.MertonJumpDiffusion", "sigma=%v lambda=%v delta=%v", m.Sigma, m.Lambda, m.Delta)
	}
	return nil
}

// kappa is the expected relative jump E[e^J] − 1.
func (m MertonJumpDiffusion) kappa() float64 {
	return math.Exp(m.Mu+0.5*m.Delta*m.Delta) - 1
}

// TerminalPrice draws the jump count of each step from a Poisson law and
// compensates the drift so the discounted price is a martingale.
func (m MertonJumpDiffusion) TerminalPrice(s0, r, t float64, steps int, rng *rand.Rand) float64 {
	dt := t / float64(steps)
	drift := (r - m.Lambda*m.kappa() - 0.5*m.Sigma*m.Sigma) * dt
	vol := m.Sigma * math.Sqrt(dt)
	jumps := distuv.Poisson{Lambda: m.Lambda * dt, Src: rng}
	logS := math.Log(s0)
	for i := 0; i < steps; i++ {
		logS += drift + vol*rng.NormFloat64()
		if m.Lambda == 0 {
			continue
		}
		if n := jumps.Rand(); n > 0 {
			logS += n*m.Mu + m.Delta*math.Sqrt(n)*rng.NormFloat64()
		}
	}
	return math.Exp(logS)
}

// CallPrice is Merton's series: a Poisson mixture of Black-Scholes prices
// with jump-adjusted rate and volatility.
func (m MertonJumpDiffusion) CallPrice(s0, k, r, t float64) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if s0 <= 0 || k <= 0 || t <= 0 {
		return 0, errs.Domain("models.MertonJumpDiffusion.CallPrice", "s0=%v k=%v t=%v", s0, k, t)
	}
	kappa := m.kappa()
	lt := m.Lambda * (1 + kappa) * t
	weight := math.Exp(-lt)
	price := 0.0
	for n := 0; n < 200; n++ {
		if n > 0 {
			weight *= lt / float64(n)
		}
		fn := float64(n)
		sigma := math.Sqrt(m.Sigma*m.Sigma + fn*m.Delta*m.Delta/t)
		rn := r - m.Lambda*kappa + fn*math.Log1p(kappa)/t
		price += weight * pricing.BlackScholesCall(s0, k, rn, 0, sigma, t)
		if n > int(lt) && weight < 1e-14 {
			break
		}
	}
	return price, nil
}

// splitJumps separates returns more than threshold standard deviations away
// from the mean.
func splitJumps(returns []float64, threshold float64) (diffusive, jumps []float64) {
	mean, std := stat.MeanStdDev(returns, nil)
	for _, r := range returns {
		if math.Abs(r-mean) > threshold*std {
			jumps = append(jumps, r)
		} else {
			diffusive = append(diffusive, r)
		}
	}
	return diffusive, jumps
}

// diffusionFit holds what both jump estimators share.
type diffusionFit struct {
	sigma  float64
	lambda float64
	jumps  []float64
}

func fitDiffusion(op string, returns []float64, dt float64) (diffusionFit, error) {
	if dt <= 0 {
		return diffusionFit{}, errs.Domain(op, "dt=%v", dt)
	}
	if len(returns) < 3 {
		return diffusionFit{}, errs.InsufficientData(op, "need at least 3 returns, got %d", len(returns))
	}
	diffusive, jumps := splitJumps(returns, JumpThreshold)
	if len(diffusive) < 2 {
		return diffusionFit{}, errs.InsufficientData(op, "only %d returns without jumps", len(diffusive))
	}
	return diffusionFit{
		sigma:  stat.StdDev(diffusive, nil) / math.Sqrt(dt),
		lambda: float64(len(jumps)) / (float64(len(returns)) * dt),
		jumps:  jumps,
	}, nil
}

// EstimateMerton fits the model to log returns sampled every dt years.
func EstimateMerton(returns []float64, dt float64) (MertonJumpDiffusion, error) {
	fit, err := fitDiffusion("models.EstimateMerton", returns, dt)
	if err != nil {
		return MertonJumpDiffusion{}, err
	}
	m := MertonJumpDiffusion{Sigma: fit.sigma, Lambda: fit.lambda}
	if len(fit.jumps) > 0 {
		m.Mu, m.Delta = stat.PopMeanStdDev(fit.jumps, nil)
	}
	return m, nil
}
