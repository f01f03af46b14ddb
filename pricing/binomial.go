package pricing

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/shopspring/decimal"
)

const DefaultTreeSteps = 500

// BoundaryPoint is the early-exercise frontier at one step of the tree. Spot
// is unknown when no node at that step is exercised.
type BoundaryPoint struct {
	Step int
	Time decimal.Decimal
	Spot decimal.NullDecimal
}

// TreeResult is the output of a Cox-Ross-Rubinstein lattice.
type TreeResult struct {
	Price    decimal.Decimal
	Delta    decimal.Decimal
	Gamma    decimal.Decimal
	Boundary []BoundaryPoint
}

type treeOutput struct {
	price, delta, gamma float64
	boundary            []float64 // NaN when the step has no exercised node
}

func crr(in inputs, steps int, american bool) (treeOutput, error) {
	if steps < 2 {
		return treeOutput{}, errs.Domain("pricing.Binomial", "tree needs at least 2 steps, got %d", steps)
	}
	if in.degenerate() {
		return treeOutput{price: in.intrinsic(in.S), delta: intrinsicGreeks(in).delta}, nil
	}

	dt := in.T / float64(steps)
	u := math.Exp(in.sigma * math.Sqrt(dt))
	d := 1 / u
	disc := math.Exp(-in.r * dt)
	p := (math.Exp((in.r-in.q)*dt) - d) / (u - d)
	if math.IsNaN(p) || p < 0 || p > 1 {
		return treeOutput{}, errs.Numeric("pricing.Binomial", "risk-neutral probability %v outside [0,1]; increase steps", p)
	}

	spot := func(i, j int) float64 {
		return in.S * math.Pow(u, float64(2*j-i))
	}

	values := make([]float64, steps+1)
	for j := 0; j <= steps; j++ {
		values[j] = in.intrinsic(spot(steps, j))
	}

	out := treeOutput{boundary: make([]float64, steps)}
	var level1, level2 [3]float64
	for i := steps - 1; i >= 0; i-- {
		frontier := math.NaN()
		for j := 0; j <= i; j++ {
			v := disc * (p*values[j+1] + (1-p)*values[j])
			if american {
				s := spot(i, j)
				if ex := in.intrinsic(s); ex > 0 && ex > v {
					v = ex
					// puts exercise below the frontier, calls above it
					if math.IsNaN(frontier) || (!in.call && s > frontier) || (in.call && s < frontier) {
						frontier = s
					}
				}
			}
			values[j] = v
		}
		out.boundary[i] = frontier
		switch i {
		case 2:
			copy(level2[:], values[:3])
		case 1:
			copy(level1[:2], values[:2])
		}
	}

	out.price = values[0]
	su, sd := in.S*u, in.S*d
	out.delta = (level1[1] - level1[0]) / (su - sd)
	if steps >= 3 {
		suu, sdd := in.S*u*u, in.S*d*d
		upDelta := (level2[2] - level2[1]) / (suu - in.S)
		downDelta := (level2[1] - level2[0]) / (in.S - sdd)
		out.gamma = (upDelta - downDelta) / (0.5 * (suu - sdd))
	}
	if math.IsNaN(out.price) {
		return treeOutput{}, errs.Numeric("pricing.Binomial", "NaN price from tree")
	}
	return out, nil
}

// Binomial prices opt on a CRR tree of the given depth. American options are
// checked for early exercise at every node; European options are not.
func Binomial(opt options.Option, steps int) (TreeResult, error) {
	in, err := inputsFrom(opt)
	if err != nil {
		return TreeResult{}, err
	}
	out, err := crr(in, steps, opt.Type == options.American)
	if err != nil {
		return TreeResult{}, err
	}

	res := TreeResult{}
	if res.Price, err = toDecimal("pricing.Binomial", out.price); err != nil {
		return TreeResult{}, err
	}
	scale := positionScale(opt)
	delta, err := toDecimal("pricing.Binomial", out.delta)
	if err != nil {
		return TreeResult{}, err
	}
	gamma, err := toDecimal("pricing.Binomial", out.gamma)
	if err != nil {
		return TreeResult{}, err
	}
	res.Delta = delta.Mul(scale)
	res.Gamma = gamma.Mul(scale)

	dt := in.T / float64(steps)
	for i, s := range out.boundary {
		bp := BoundaryPoint{Step: i, Time: decimal.NewFromFloat(float64(i) * dt)}
		if !math.IsNaN(s) {
			bp.Spot = decimal.NewNullDecimal(decimal.NewFromFloat(s))
		}
		res.Boundary = append(res.Boundary, bp)
	}
	return res, nil
}
