package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/bcdannyboy/optionlab/chains"
	"github.com/bcdannyboy/optionlab/curves"
	"github.com/bcdannyboy/optionlab/fsutil"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positions"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/bcdannyboy/optionlab/probability"
	"github.com/bcdannyboy/optionlab/series"
	"github.com/bcdannyboy/optionlab/visualization"
	"github.com/shopspring/decimal"
	"github.com/xhhuango/json"
)

// plottedSpreads caps the P&L chart; more lines are unreadable.
const plottedSpreads = 5

type spreadReport struct {
	Kind                string       `json:"kind"`
	Expiration          string       `json:"expiration"`
	ShortStrike         json.Number  `json:"short_strike"`
	LongStrike          json.Number  `json:"long_strike"`
	Credit              json.Number  `json:"credit"`
	MaxProfit           json.Number  `json:"max_profit"`
	MaxLoss             json.Number  `json:"max_loss"`
	ReturnOnRisk        json.Number  `json:"return_on_risk"`
	BreakEven           *json.Number `json:"break_even"`
	ProbabilityOfProfit json.Number  `json:"probability_of_profit"`
	ExpectedPnL         json.Number  `json:"expected_pnl"`
	VaR95               json.Number  `json:"var_95"`
	ExpectedShortfall   json.Number  `json:"expected_shortfall"`
	ContractSize        json.Number  `json:"contract_size"`
	CreditPerContract   json.Number  `json:"credit_per_contract"`
	MaxLossPerContract  json.Number  `json:"max_loss_per_contract"`
}

func number(d decimal.Decimal) json.Number { return json.Number(d.Round(6).String()) }

// newSpreadReport reports per-unit amounts of sp, plus the credit and max
// loss in cash per contract of chain.
func newSpreadReport(chain *chains.OptionChain, sp *positions.VerticalSpread, a probability.Analysis) spreadReport {
	r := spreadReport{
		Kind:                sp.Kind().String(),
		Expiration:          sp.Contract().Expiration.String(),
		ShortStrike:         number(sp.Short.Option.Strike.Decimal()),
		LongStrike:          number(sp.Long.Option.Strike.Decimal()),
		Credit:              number(sp.Credit()),
		MaxProfit:           number(sp.MaxProfit()),
		MaxLoss:             number(sp.MaxLoss()),
		ProbabilityOfProfit: number(a.ProbabilityOfProfit),
		ExpectedPnL:         number(a.ExpectedPnL),
		VaR95:               number(a.VaR95),
		ExpectedShortfall:   number(a.ExpectedShortfall),
		ContractSize:        number(chain.ContractSize().Decimal()),
		CreditPerContract:   number(chain.ContractValue(sp.Credit())),
		MaxLossPerContract:  number(chain.ContractValue(sp.MaxLoss())),
	}
	if ror, err := sp.ReturnOnRisk(); err == nil {
		r.ReturnOnRisk = number(ror)
	}
	if be, ok := sp.BreakEven(); ok {
		n := number(be.Decimal())
		r.BreakEven = &n
	}
	return r
}

func saveReport(ctx context.Context, path string, model probability.ModelKind, reports []spreadReport) error {
	return fsutil.WriteAtomic(ctx, "main.saveReport", path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Model   string         `json:"model"`
			Spreads []spreadReport `json:"spreads"`
		}{model.String(), reports})
	})
}

// exportPlots writes the smile and P&L charts of chain and the delta
// surface of s under dir/plots.
func exportPlots(ctx context.Context, dir string, s *series.OptionSeries, chain *chains.OptionChain, spreads []*positions.VerticalSpread) error {
	plots := filepath.Join(dir, "plots")

	smile, err := chain.Smile()
	if err != nil {
		return err
	}
	trace := visualization.FromCurve(smile, chain.Symbol, visualization.LinesMarkers)
	cfg := visualization.DefaultGraphConfig(fmt.Sprintf("%s smile %s", chain.Symbol, chain.Expiration), "Strike", "Implied volatility")
	if err := visualization.ExportContext(ctx, filepath.Join(plots, "smile.json"), &trace, cfg); err != nil {
		return err
	}

	surface, err := s.Surface(chains.AxisDelta, options.Call, options.Long)
	if err != nil {
		return err
	}
	grid, err := visualization.FromSurface(surface, "strike", "days", "delta")
	if err != nil {
		return err
	}
	zLabel := "Delta"
	cfg = visualization.DefaultGraphConfig(fmt.Sprintf("%s call delta", chain.Symbol), "Strike", "Days to expiry")
	cfg.ZLabel = &zLabel
	if err := visualization.ExportContext(ctx, filepath.Join(plots, "delta_surface.json"), &grid, cfg); err != nil {
		return err
	}

	if len(spreads) == 0 {
		return nil
	}
	if len(spreads) > plottedSpreads {
		spreads = spreads[:plottedSpreads]
	}
	spot := chain.UnderlyingPrice.Decimal()
	from := positive.MustNew(spot.Mul(decimal.RequireFromString("0.8")))
	to := positive.MustNew(spot.Mul(decimal.RequireFromString("1.2")))
	cs := make([]*curves.Curve, len(spreads))
	names := make([]string, len(spreads))
	for i, sp := range spreads {
		c, err := sp.ProfitCurveContext(ctx, from, to, 101)
		if err != nil {
			return err
		}
		cs[i] = c
		names[i] = fmt.Sprintf("%s %s/%s", sp.Kind(), sp.Short.Option.Strike, sp.Long.Option.Strike)
	}
	multi := visualization.FromCurves(cs, names, visualization.Lines)
	cfg = visualization.DefaultGraphConfig(fmt.Sprintf("%s credit spreads at expiry", chain.Symbol), "Underlying", "P&L")
	cfg.LegendNames = names
	return visualization.ExportContext(ctx, filepath.Join(plots, "spreads_pnl.json"), &multi, cfg)
}
