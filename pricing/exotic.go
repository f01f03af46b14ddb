package pricing

import (
	"math"
	"runtime"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// BinaryPricer values cash-or-nothing options in closed form. Greeks come from
// finite differences of the closed-form price.
type BinaryPricer struct {
	Bumps Bumps
}

func (BinaryPricer) Source() Source { return ClosedForm }

func binaryPrice(in inputs) (float64, error) {
	if in.degenerate() {
		if in.intrinsic(in.S) > 0 {
			return in.payout, nil
		}
		return 0, nil
	}
	_, d2 := in.d1d2()
	dr := math.Exp(-in.r * in.T)
	if in.call {
		return in.payout * dr * normCDF(d2), nil
	}
	return in.payout * dr * normCDF(-d2), nil
}

func (BinaryPricer) Price(opt options.Option) (decimal.Decimal, error) {
	if opt.Type != options.Binary {
		return decimal.Zero, errs.Domain("pricing.BinaryPricer", "option type %v is not binary", opt.Type)
	}
	in, err := inputsFrom(opt)
	if err != nil {
		return decimal.Zero, err
	}
	p, err := binaryPrice(in)
	if err != nil {
		return decimal.Zero, err
	}
	return toDecimal("pricing.BinaryPricer", p)
}

func (bp BinaryPricer) Greeks(opt options.Option) (Greeks, error) {
	if opt.Type != options.Binary {
		return Greeks{}, errs.Domain("pricing.BinaryPricer", "option type %v is not binary", opt.Type)
	}
	in, err := inputsFrom(opt)
	if err != nil {
		return Greeks{}, err
	}
	g, err := finiteDifferenceGreeks(binaryPrice, in, bp.Bumps)
	if err != nil {
		return Greeks{}, err
	}
	if in.degenerate() {
		// a binary has no unit delta at expiry
		g.delta = 0
	}
	return g.toDecimal("pricing.BinaryPricer", positionScale(opt))
}

// AsianPricer values arithmetic-average fixed-strike options by Monte Carlo
// over geometric Brownian motion paths. The same seed yields the same price.
type AsianPricer struct {
	Bumps Bumps
}

const asianChunk = 256

func (AsianPricer) Source() Source { return Simulation }

func asianPriceFunc(params options.ExoticParams) priceFunc {
	return func(in inputs) (float64, error) {
		if in.degenerate() {
			return in.intrinsic(in.S), nil
		}
		dt := in.T / float64(params.Steps)
		drift := (in.r - in.q - 0.5*in.sigma*in.sigma) * dt
		vol := in.sigma * math.Sqrt(dt)

		chunks := (params.Paths + asianChunk - 1) / asianChunk
		sums := make([]float64, chunks)

		g := new(errgroup.Group)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for c := 0; c < chunks; c++ {
			c := c
			g.Go(func() error {
				rng := rand.New(rand.NewSource(params.Seed + uint64(c)))
				n := asianChunk
				if rest := params.Paths - c*asianChunk; rest < n {
					n = rest
				}
				total := 0.0
				for p := 0; p < n; p++ {
					s := in.S
					avg := 0.0
					for k := 0; k < params.Steps; k++ {
						s *= math.Exp(drift + vol*rng.NormFloat64())
						avg += s
					}
					total += in.intrinsic(avg / float64(params.Steps))
				}
				sums[c] = total
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}

		total := 0.0
		for _, s := range sums {
			total += s
		}
		price := math.Exp(-in.r*in.T) * total / float64(params.Paths)
		if math.IsNaN(price) {
			return 0, errs.Numeric("pricing.AsianPricer", "NaN price from simulation")
		}
		return price, nil
	}
}

func (AsianPricer) Price(opt options.Option) (decimal.Decimal, error) {
	if opt.Type != options.Asian {
		return decimal.Zero, errs.Domain("pricing.AsianPricer", "option type %v is not asian", opt.Type)
	}
	in, err := inputsFrom(opt)
	if err != nil {
		return decimal.Zero, err
	}
	p, err := asianPriceFunc(*opt.Exotic)(in)
	if err != nil {
		return decimal.Zero, err
	}
	return toDecimal("pricing.AsianPricer", p)
}

func (ap AsianPricer) Greeks(opt options.Option) (Greeks, error) {
	if opt.Type != options.Asian {
		return Greeks{}, errs.Domain("pricing.AsianPricer", "option type %v is not asian", opt.Type)
	}
	in, err := inputsFrom(opt)
	if err != nil {
		return Greeks{}, err
	}
	g, err := finiteDifferenceGreeks(asianPriceFunc(*opt.Exotic), in, ap.Bumps)
	if err != nil {
		return Greeks{}, err
	}
	return g.toDecimal("pricing.AsianPricer", positionScale(opt))
}
