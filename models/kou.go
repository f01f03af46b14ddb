package models

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// KouJumpDiffusion has double-exponential log jumps: up with probability P
// and mean size 1/Eta1, down otherwise with mean size 1/Eta2.
type KouJumpDiffusion struct {
	Sigma  float64
	Lambda float64
	P      float64
	Eta1   float64
	Eta2   float64
}

func (k KouJumpDiffusion) Validate() error {
	if k.Sigma < 0 || k.Lambda < 0 || k.P < 0 || k.P > 1 || k.Eta2 <= 0 {
		return errs.Domain("models.KouJumpDiffusion", "sigma=%v lambda=%v p=%v eta2=%v", k.Sigma, k.Lambda, k.P, k.Eta2)
	}
	// E[e^J] is infinite unless up jumps average below 100%.
	if k.Eta1 <= 1 {
		return errs.Stability("models.KouJumpDiffusion", "eta1=%v must exceed 1", k.Eta1)
	}
	return nil
}

func (k KouJumpDiffusion) kappa() float64 {
	if k.Lambda == 0 {
		return 0
	}
	return k.P*k.Eta1/(k.Eta1-1) + (1-k.P)*k.Eta2/(k.Eta2+1) - 1
}

func (k KouJumpDiffusion) jump(rng *rand.Rand) float64 {
	if rng.Float64() < k.P {
		return rng.ExpFloat64() / k.Eta1
	}
	return -rng.ExpFloat64() / k.Eta2
}

func (k KouJumpDiffusion) TerminalPrice(s0, r, t float64, steps int, rng *rand.Rand) float64 {
	dt := t / float64(steps)
	drift := (r - k.Lambda*k.kappa() - 0.5*k.Sigma*k.Sigma) * dt
	vol := k.Sigma * math.Sqrt(dt)
	arrivals := distuv.Poisson{Lambda: k.Lambda * dt, Src: rng}
	logS := math.Log(s0)
	for i := 0; i < steps; i++ {
		logS += drift + vol*rng.NormFloat64()
		if k.Lambda == 0 {
			continue
		}
		for n := int(arrivals.Rand()); n > 0; n-- {
			logS += k.jump(rng)
		}
	}
	return math.Exp(logS)
}

// EstimateKou fits the model to log returns sampled every dt years. A side
// without observed jumps gets the detection threshold as its mean size.
func EstimateKou(returns []float64, dt float64) (KouJumpDiffusion, error) {
	const op = "models.EstimateKou"
	fit, err := fitDiffusion(op, returns, dt)
	if err != nil {
		return KouJumpDiffusion{}, err
	}
	var up, down []float64
	for _, j := range fit.jumps {
		if j > 0 {
			up = append(up, j)
		} else {
			down = append(down, -j)
		}
	}
	_, std := stat.MeanStdDev(returns, nil)
	floor := JumpThreshold * std

	meanSize := func(xs []float64) float64 {
		if len(xs) == 0 {
			return floor
		}
		return stat.Mean(xs, nil)
	}
	k := KouJumpDiffusion{
		Sigma:  fit.sigma,
		Lambda: fit.lambda,
		P:      0.5,
		Eta1:   1 / meanSize(up),
		Eta2:   1 / meanSize(down),
	}
	if len(fit.jumps) > 0 {
		k.P = float64(len(up)) / float64(len(fit.jumps))
	}
	if err := k.Validate(); err != nil {
		return KouJumpDiffusion{}, err
	}
	return k, nil
}
