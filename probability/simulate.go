// Package probability estimates the distribution of a position's P&L at
// expiry by Monte Carlo over a model of the underlying.
package probability

import (
	"context"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/bcdannyboy/optionlab/models"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Position is anything with a P&L at expiry on one underlying:
// *positions.Position and *positions.VerticalSpread both qualify.
type Position interface {
	PnLAtExpiry(spot positive.Positive) decimal.Decimal
	Contract() options.Option
}

type Config struct {
	Paths      int
	Steps      int
	Seed       uint64
	Confidence float64
}

var DefaultConfig = Config{Paths: 10000, Steps: 50, Seed: 1, Confidence: 0.95}

func (c Config) withDefaults() Config {
	if c.Paths == 0 {
		c.Paths = DefaultConfig.Paths
	}
	if c.Steps == 0 {
		c.Steps = DefaultConfig.Steps
	}
	if c.Confidence == 0 {
		c.Confidence = DefaultConfig.Confidence
	}
	return c
}

// Analysis summarises the simulated P&L. VaR95 is taken at the configured
// confidence, 95% unless set otherwise. VaR95 and ExpectedShortfall are
// losses; negative values mean even the tail is profitable.
type Analysis struct {
	ProbabilityOfProfit decimal.Decimal
	ExpectedPnL         decimal.Decimal
	StdDevPnL           decimal.Decimal
	VaR95               decimal.Decimal
	ExpectedShortfall   decimal.Decimal
	ParametricVaR       decimal.Decimal
	Paths               int
}

func Simulate(pos Position, model models.PathModel, cfg Config) (Analysis, error) {
	return SimulateContext(context.Background(), pos, model, cfg)
}

// SimulateContext draws cfg.Paths terminal prices of the contract's
// underlying from model, path i seeded with cfg.Seed+i, and analyses the
// position's P&L over them. Zero fields of cfg take DefaultConfig values.
func SimulateContext(ctx context.Context, pos Position, model models.PathModel, cfg Config) (Analysis, error) {
	if pos == nil || model == nil {
		return Analysis{}, errs.Domain("probability.Simulate", "nil position or model")
	}
	cfg = cfg.withDefaults()
	if cfg.Paths < 0 || cfg.Steps < 0 {
		return Analysis{}, errs.Domain("probability.Simulate", "paths=%d steps=%d", cfg.Paths, cfg.Steps)
	}
	opt := pos.Contract()
	s0 := opt.UnderlyingPrice.Float64()
	t := opt.TimeToExpiryYears().Float64()
	r := opt.RiskFreeRate.InexactFloat64() - opt.DividendYield.Float64()
	defer logger.LogDuration(ctx, "simulated position", "contract", opt.Title(), "paths", cfg.Paths)()

	var prices []float64
	if t == 0 {
		// expired: the underlying stays where it is
		prices = make([]float64, cfg.Paths)
		for i := range prices {
			prices[i] = s0
		}
	} else {
		var err error
		prices, err = models.SimulateTerminalPrices(ctx, model, s0, r, t, cfg.Steps, cfg.Paths, cfg.Seed)
		if err != nil {
			return Analysis{}, err
		}
	}

	pnls, err := geometrics.Evaluate(ctx, len(prices), func(i int) (float64, error) {
		spot, err := positive.NewFromFloat(prices[i])
		if err != nil {
			return 0, err
		}
		return pos.PnLAtExpiry(spot).InexactFloat64(), nil
	})
	if err != nil {
		return Analysis{}, err
	}
	return Analyze(pnls, cfg.Confidence)
}

// Analyze summarises a P&L sample.
func Analyze(pnls []float64, confidence float64) (Analysis, error) {
	tl, err := lossTail(pnls, confidence)
	if err != nil {
		return Analysis{}, err
	}
	wins := 0
	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}
	mean, std := stat.PopMeanStdDev(pnls, nil)
	return Analysis{
		ProbabilityOfProfit: decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(len(pnls)))),
		ExpectedPnL:         decimal.NewFromFloat(mean),
		StdDevPnL:           decimal.NewFromFloat(std),
		VaR95:               decimal.NewFromFloat(tl.valueAtRisk),
		ExpectedShortfall:   decimal.NewFromFloat(tl.expectedShortfall),
		ParametricVaR:       decimal.NewFromFloat(tl.parametric),
		Paths:               len(pnls),
	}, nil
}
