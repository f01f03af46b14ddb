package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bcdannyboy/optionlab/chains"
	"github.com/bcdannyboy/optionlab/config"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/bcdannyboy/optionlab/models"
	"github.com/bcdannyboy/optionlab/ohlcv"
	"github.com/bcdannyboy/optionlab/positions"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/bcdannyboy/optionlab/pricing"
	"github.com/bcdannyboy/optionlab/probability"
	"github.com/bcdannyboy/optionlab/series"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

type cliOptions struct {
	configPath string
	initConfig bool
	ohlcvPath  string
	from, to   string
	model      string
	spread     string
	minRoR     float64
	fee        float64
	top        int
	paths      int
	seed       uint64
}

func main() {
	defaults := config.Default()
	flags := pflag.NewFlagSet("optionlab", pflag.ExitOnError)
	var o cliOptions
	flags.StringVar(&o.configPath, "config", "optionlab.yaml", "YAML configuration file")
	flags.BoolVar(&o.initConfig, "init", false, "write the default configuration to --config and exit")
	flags.StringVar(&o.ohlcvPath, "ohlcv", "", "zip of daily candles used to calibrate the simulation model")
	flags.StringVar(&o.from, "from", "", "first candle date (YYYY-MM-DD)")
	flags.StringVar(&o.to, "to", "", "last candle date (YYYY-MM-DD)")
	flags.StringVar(&o.model, "model", probability.GBM.String(), "price model: gbm, merton, kou or vg")
	flags.StringVar(&o.spread, "spread", "bull-put", "credit spread to scan: bull-put or bear-call")
	flags.Float64Var(&o.minRoR, "min-ror", 0.1, "minimum return on risk")
	flags.Float64Var(&o.fee, "fee", 0, "fee per contract on each of open and close")
	flags.IntVar(&o.top, "top", 10, "spreads to simulate")
	flags.IntVar(&o.paths, "paths", probability.DefaultConfig.Paths, "Monte Carlo paths per spread")
	flags.Uint64Var(&o.seed, "seed", probability.DefaultConfig.Seed, "Monte Carlo seed")

	flags.String("chain-symbol", defaults.Chain.Symbol, "underlying symbol")
	flags.Float64("chain-underlying", defaults.Chain.Underlying, "underlying price")
	flags.Float64("chain-days", defaults.Chain.Days, "days to expiry of the scanned chain")
	flags.Int("chain-size", defaults.Chain.Size, "strikes on each side of the money")
	flags.Float64("chain-volatility", defaults.Chain.Volatility, "at-the-money implied volatility")
	flags.IntSlice("series-days", defaults.Series.Days, "expiries of the option series")
	flags.String("logger-level", defaults.Logger.Level, "debug, info, warn or error")
	flags.String("output-dir", defaults.Output.Dir, "directory for chains, reports and plots")
	flags.Parse(os.Args[1:])

	if o.initConfig {
		if err := config.WriteDefault(o.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %s\n", o.configPath, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", o.configPath)
		return
	}

	cfg, err := config.Load(o.configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %s\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error initialising logger: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go monitorCPUUsage(ctx)

	if err := run(ctx, cfg, o); err != nil {
		logger.Error(ctx, "run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, o cliOptions) error {
	defer logger.LogDuration(ctx, "optionlab run", "symbol", cfg.Chain.Symbol)()
	b := cfg.Pricing.Bumps
	if err := pricing.Configure(cfg.Pricing.TreeSteps, pricing.Bumps{Spot: b.Spot, Vol: b.Vol, Time: b.Time, Rate: b.Rate}); err != nil {
		return err
	}
	kind, err := parseSpreadKind(o.spread)
	if err != nil {
		return err
	}
	modelKind, err := probability.ParseModelKind(o.model)
	if err != nil {
		return err
	}
	params, err := chainParams(cfg.Chain)
	if err != nil {
		return err
	}
	now := time.Now()

	s, err := buildSeries(ctx, params, cfg.Series.Days, now)
	if err != nil {
		return err
	}
	for _, c := range s.Chains() {
		if err := saveChain(ctx, cfg.Output.Dir, c); err != nil {
			return err
		}
	}

	chain, err := chains.BuildContext(ctx, params, now)
	if err != nil {
		return err
	}
	if err := saveChain(ctx, cfg.Output.Dir, chain); err != nil {
		return err
	}

	fee, err := positive.NewFromFloat(o.fee)
	if err != nil {
		return err
	}
	spreads, err := scan(ctx, chain, kind, positions.ScanConfig{
		MinReturnOnRisk: decimal.NewFromFloat(o.minRoR),
		Quantity:        positive.ONE,
		OpenFee:         fee,
		CloseFee:        fee,
		Now:             now,
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "credit spreads found", "kind", kind, "count", len(spreads), "min_ror", o.minRoR)

	model, err := calibrate(ctx, o, modelKind, cfg.Chain.Volatility)
	if err != nil {
		return err
	}
	if len(spreads) > o.top {
		spreads = spreads[:o.top]
	}
	simCfg := probability.Config{Paths: o.paths, Seed: o.seed}
	reports := make([]spreadReport, 0, len(spreads))
	for _, sp := range spreads {
		a, err := probability.SimulateContext(ctx, sp, model, simCfg)
		if err != nil {
			return err
		}
		reports = append(reports, newSpreadReport(chain, sp, a))
	}
	if err := saveReport(ctx, filepath.Join(cfg.Output.Dir, "spreads.json"), modelKind, reports); err != nil {
		return err
	}

	if err := exportPlots(ctx, cfg.Output.Dir, s, chain, spreads); err != nil {
		return err
	}
	logger.Info(ctx, "run complete", "output", cfg.Output.Dir, "spreads", len(reports))
	return nil
}

func parseSpreadKind(s string) (positions.SpreadKind, error) {
	switch s {
	case "bull-put":
		return positions.BullPut, nil
	case "bear-call":
		return positions.BearCall, nil
	}
	return 0, fmt.Errorf("unknown spread %q: want bull-put or bear-call", s)
}

func chainParams(c config.ChainConfig) (chains.ChainBuildParams, error) {
	floats := []float64{c.Underlying, c.Days, c.DividendYield, c.StrikeInterval, c.Volatility, c.Spread, c.ContractSize}
	ps := make([]positive.Positive, len(floats))
	for i, f := range floats {
		p, err := positive.NewFromFloat(f)
		if err != nil {
			return chains.ChainBuildParams{}, err
		}
		ps[i] = p
	}
	return chains.ChainBuildParams{
		Symbol:         c.Symbol,
		ChainSize:      c.Size,
		StrikeInterval: ps[3],
		SkewSlope:      decimal.NewFromFloat(c.SkewSlope),
		SmileCurvature: decimal.NewFromFloat(c.SmileCurvature),
		Volatility:     ps[4],
		Price: chains.PriceParams{
			UnderlyingPrice: ps[0],
			ExpirationDays:  ps[1],
			RiskFreeRate:    decimal.NewFromFloat(c.RiskFreeRate),
			DividendYield:   ps[2],
		},
		ContractSize:  ps[6],
		Spread:        ps[5],
		DecimalPlaces: c.DecimalPlaces,
	}, nil
}

func newProgress(ctx context.Context) *mpb.Progress {
	return mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
}

func addBar(p *mpb.Progress, name string, total int) *mpb.Bar {
	return p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)
}

func buildSeries(ctx context.Context, params chains.ChainBuildParams, days []int, now time.Time) (*series.OptionSeries, error) {
	exps := make([]positive.Positive, len(days))
	for i, d := range days {
		exps[i] = positive.MustNew(decimal.NewFromInt(int64(d)))
	}
	p := newProgress(ctx)
	bar := addBar(p, "Series", len(exps))
	s, err := series.BuildWithProgress(ctx, params, exps, now, bar)
	if err != nil {
		bar.Abort(false)
	}
	p.Wait()
	return s, err
}

func scan(ctx context.Context, chain *chains.OptionChain, kind positions.SpreadKind, cfg positions.ScanConfig) ([]*positions.VerticalSpread, error) {
	p := newProgress(ctx)
	bar := addBar(p, kind.String(), positions.PairCount(chain))
	cfg.Progress = bar
	spreads, err := positions.FindCreditSpreadsContext(ctx, chain, kind, cfg)
	if err != nil {
		bar.Abort(false)
	} else {
		// an empty chain never increments
		bar.SetTotal(int64(positions.PairCount(chain)), true)
	}
	p.Wait()
	return spreads, err
}

func saveChain(ctx context.Context, dir string, c *chains.OptionChain) error {
	base := filepath.Join(dir, "chains", c.FileName())
	if err := c.SaveCSVContext(ctx, base); err != nil {
		return err
	}
	return c.SaveJSONContext(ctx, base[:len(base)-len(".csv")]+".json")
}

// calibrate fits kind to the candle history when one is given. Without it
// only GBM at the configured volatility is available.
func calibrate(ctx context.Context, o cliOptions, kind probability.ModelKind, implied float64) (models.PathModel, error) {
	if o.ohlcvPath == "" {
		if kind != probability.GBM {
			return nil, fmt.Errorf("model %s needs --ohlcv history", kind)
		}
		return models.GeometricBrownian{Sigma: implied}, nil
	}
	from, err := parseDate(o.from)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(o.to)
	if err != nil {
		return nil, err
	}
	candles, err := ohlcv.LoadZipContext(ctx, o.ohlcvPath, from, to)
	if err != nil {
		return nil, err
	}
	month := models.YangZhangVolatilities(candles)["1m"]
	logger.Info(ctx, "realised volatility",
		"candles", len(candles),
		"yang_zhang_1m", month,
		"garman_klass_1m", models.GarmanKlassVolatilities(candles)["1m"],
		"parkinson_1m", models.ParkinsonVolatilities(candles)["1m"],
		"rogers_satchell_1m", models.RogersSatchellVolatilities(candles)["1m"],
	)
	returns := ohlcv.LogReturns(candles)
	if g, err := models.EstimateGARCH11(returns, o.seed); err == nil {
		if v, err := g.ConditionalVolatility(returns); err == nil {
			logger.Info(ctx, "garch volatility", "conditional", v)
		}
	}
	m, err := probability.Calibrate(kind, returns, 1.0/models.TradingDaysPerYear, probability.BlendedVolatility(implied, month))
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "calibrated model", "model", kind, "params", fmt.Sprintf("%+v", m))
	return m, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", s, err)
	}
	return &t, nil
}

func monitorCPUUsage(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			percentage, err := cpu.PercentWithContext(ctx, time.Second, false)
			if err == nil && len(percentage) > 0 {
				logger.Debug(ctx, "cpu usage", "percent", percentage[0])
			}
		}
	}
}
