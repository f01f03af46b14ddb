package probability

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/models"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positions"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/bcdannyboy/optionlab/pricing"
	"github.com/shopspring/decimal"
)

var opened = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func call(strike string, days string, side options.Side) options.Option {
	return options.Option{
		Style:             options.Call,
		Side:              side,
		UnderlyingSymbol:  "SPY",
		Strike:            positive.MustParse(strike),
		Expiration:        options.Days(positive.MustParse(days)),
		ImpliedVolatility: positive.MustParse("0.2"),
		Quantity:          positive.ONE,
		UnderlyingPrice:   positive.MustParse("100"),
		RiskFreeRate:      decimal.RequireFromString("0.05"),
	}
}

func TestAnalyzeTail(t *testing.T) {
	pnls := make([]float64, 100)
	for i := range pnls {
		// shuffled order must not matter
		pnls[(i*37)%100] = float64(i - 50)
	}
	a, err := Analyze(pnls, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if !a.VaR95.Equal(decimal.NewFromInt(45)) {
		t.Errorf("VaR = %s", a.VaR95)
	}
	if !a.ExpectedShortfall.Equal(decimal.RequireFromString("47.5")) {
		t.Errorf("ES = %s", a.ExpectedShortfall)
	}
	if !a.ProbabilityOfProfit.Equal(decimal.RequireFromString("0.49")) {
		t.Errorf("PoP = %s", a.ProbabilityOfProfit)
	}
	if !a.ExpectedPnL.Equal(decimal.RequireFromString("-0.5")) {
		t.Errorf("mean = %s", a.ExpectedPnL)
	}
	if a.ParametricVaR.LessThan(a.VaR95.Sub(decimal.NewFromInt(5))) || a.ParametricVaR.GreaterThan(a.VaR95.Add(decimal.NewFromInt(5))) {
		t.Errorf("parametric VaR %s far from historical %s", a.ParametricVaR, a.VaR95)
	}

	v, err := ValueAtRisk(pnls, 0.95)
	if err != nil || v != 45 {
		t.Errorf("ValueAtRisk = %v, %v", v, err)
	}
}

func TestAnalyzeRejects(t *testing.T) {
	if _, err := Analyze(nil, 0.95); !errors.Is(err, errs.ErrInsufficientData) {
		t.Errorf("empty: %v", err)
	}
	for _, c := range []float64{0, 1, -0.5, math.NaN()} {
		if _, err := Analyze([]float64{1, 2}, c); !errors.Is(err, errs.ErrDomain) {
			t.Errorf("confidence %v: %v", c, err)
		}
	}
}

func TestSimulateLongCall(t *testing.T) {
	opt := call("100", "30", options.Long)
	premium, err := pricing.BlackScholes(opt)
	if err != nil {
		t.Fatal(err)
	}
	pos, err := positions.New(opt, positive.MustNew(premium), opened, positive.ZERO, positive.ZERO)
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Paths: 20000, Steps: 10, Seed: 3}
	a, err := Simulate(pos, models.GeometricBrownian{Sigma: 0.2}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	p := premium.InexactFloat64()
	growth := math.Exp(0.05*30/365) - 1
	if got := a.ExpectedPnL.InexactFloat64(); !almostEqual(got, growth*p, 0.1) {
		t.Errorf("expected pnl = %v, want about %v", got, growth*p)
	}
	// more than 5% of paths finish out of the money, losing the whole premium
	if got := a.VaR95.InexactFloat64(); !almostEqual(got, p, 1e-9) {
		t.Errorf("VaR = %v, want premium %v", got, p)
	}
	if got := a.ExpectedShortfall.InexactFloat64(); !almostEqual(got, p, 1e-9) {
		t.Errorf("ES = %v, want premium %v", got, p)
	}
	if pop := a.ProbabilityOfProfit.InexactFloat64(); pop <= 0.2 || pop >= 0.6 {
		t.Errorf("PoP = %v", pop)
	}
	if a.Paths != 20000 {
		t.Errorf("paths = %d", a.Paths)
	}

	again, err := Simulate(pos, models.GeometricBrownian{Sigma: 0.2}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !again.ExpectedPnL.Equal(a.ExpectedPnL) || !again.ProbabilityOfProfit.Equal(a.ProbabilityOfProfit) {
		t.Errorf("not deterministic: %+v vs %+v", again, a)
	}
}

func TestSimulateExpiredPosition(t *testing.T) {
	pos, err := positions.New(call("90", "0", options.Long), positive.MustParse("5"), opened, positive.ZERO, positive.ZERO)
	if err != nil {
		t.Fatal(err)
	}
	a, err := Simulate(pos, models.GeometricBrownian{Sigma: 0.2}, Config{Paths: 100})
	if err != nil {
		t.Fatal(err)
	}
	if !a.ProbabilityOfProfit.Equal(decimal.NewFromInt(1)) || !a.ExpectedPnL.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expired analysis = %+v", a)
	}
	if !a.VaR95.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("VaR = %s", a.VaR95)
	}
}

func TestSimulateCreditSpreadUnderJumps(t *testing.T) {
	put := func(strike string, side options.Side) options.Option {
		o := call(strike, "30", side)
		o.Style = options.Put
		return o
	}
	short, err := positions.New(put("100", options.Short), positive.MustParse("2.5"), opened, positive.ZERO, positive.ZERO)
	if err != nil {
		t.Fatal(err)
	}
	long, err := positions.New(put("95", options.Long), positive.MustParse("0.8"), opened, positive.ZERO, positive.ZERO)
	if err != nil {
		t.Fatal(err)
	}
	spread, err := positions.NewVerticalSpread(short, long)
	if err != nil {
		t.Fatal(err)
	}
	model := models.MertonJumpDiffusion{Sigma: 0.2, Lambda: 1, Mu: -0.05, Delta: 0.1}
	a, err := Simulate(spread, model, Config{Paths: 5000, Seed: 11})
	if err != nil {
		t.Fatal(err)
	}
	// float sums may drift by an ulp
	eps := decimal.RequireFromString("1e-9")
	maxLoss := spread.MaxLoss().Add(eps)
	if a.VaR95.GreaterThan(maxLoss) || a.ExpectedShortfall.GreaterThan(maxLoss) {
		t.Errorf("tail %s / %s beyond max loss %s", a.VaR95, a.ExpectedShortfall, maxLoss)
	}
	if a.ExpectedShortfall.Add(eps).LessThan(a.VaR95) {
		t.Errorf("ES %s below VaR %s", a.ExpectedShortfall, a.VaR95)
	}
	if pop := a.ProbabilityOfProfit.InexactFloat64(); pop <= 0 || pop >= 1 {
		t.Errorf("PoP = %v", pop)
	}
	if a.ExpectedPnL.GreaterThan(spread.MaxProfit()) {
		t.Errorf("mean %s above max profit %s", a.ExpectedPnL, spread.MaxProfit())
	}
}

func TestSimulateRejectsBadModel(t *testing.T) {
	pos, err := positions.New(call("100", "30", options.Long), positive.ONE, opened, positive.ZERO, positive.ZERO)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Simulate(pos, models.VarianceGamma{Sigma: 0.2}, Config{}); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("invalid model: %v", err)
	}
	if _, err := Simulate(pos, nil, Config{}); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("nil model: %v", err)
	}
}

func TestModelKinds(t *testing.T) {
	for _, k := range []ModelKind{GBM, Merton, Kou, VarianceGamma, Heston} {
		got, err := ParseModelKind(k.String())
		if err != nil || got != k {
			t.Errorf("parse %s = %v, %v", k, got, err)
		}
	}
	if k, err := ParseModelKind("VG"); err != nil || k != VarianceGamma {
		t.Errorf("VG = %v, %v", k, err)
	}
	if _, err := ParseModelKind("cgmy"); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("unknown: %v", err)
	}
}

func TestCalibrate(t *testing.T) {
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 0.001
	}
	m, err := Calibrate(GBM, flat, 1.0/252, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if gbm, ok := m.(models.GeometricBrownian); !ok || gbm.Sigma != 0.25 {
		t.Errorf("flat returns with implied 0.25 = %#v", m)
	}

	returns := []float64{0.01, -0.02, 0.015, -0.005, 0.0, 0.02, -0.01, 0.005, -0.015, 0.01, 0.003, -0.004}
	m, err = Calibrate(Merton, returns, 1.0/252, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.(models.MertonJumpDiffusion); !ok {
		t.Errorf("merton calibration returned %T", m)
	}
	if _, err := Calibrate(Heston, returns, 1.0/252, 0); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("heston: %v", err)
	}

	if got := BlendedVolatility(0.2, 0, 0.3, math.Inf(1)); !almostEqual(got, 0.25, 1e-15) {
		t.Errorf("blend = %v", got)
	}
	if BlendedVolatility() != 0 {
		t.Error("empty blend should be zero")
	}
}
