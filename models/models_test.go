package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/bcdannyboy/optionlab/ohlcv"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/bcdannyboy/optionlab/pricing"
	"github.com/bcdannyboy/optionlab/surfaces"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/rand"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestHistoricalVolatilityWindows(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.01, 0.03, 0.00}
	got, err := HistoricalVolatility(returns, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.005773502691896258, 0.01, 0.015275252316519466}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-9) {
			t.Errorf("window %d = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := HistoricalVolatility(returns, 6); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("oversized window: %v", err)
	}
	if _, err := HistoricalVolatility(nil, 1); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("empty returns: %v", err)
	}
}

func TestConstantVolatilityOfConstantInputIsZero(t *testing.T) {
	for _, returns := range [][]float64{
		{0.1, 0.1, 0.1, 0.1},
		{0.3},
	} {
		v, err := ConstantVolatility(returns)
		if err != nil {
			t.Fatal(err)
		}
		if v != 0 {
			t.Errorf("%v: vol = %v, want exactly 0", returns, v)
		}
	}
	if _, err := ConstantVolatility(nil); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}

func TestEWMAVolatility(t *testing.T) {
	got, err := EWMAVolatility([]float64{0.01, 0.02}, 0.94)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !almostEqual(got[0], 0.01, 1e-15) {
		t.Fatalf("got %v", got)
	}
	if want := math.Sqrt(1.18e-4); !almostEqual(got[1], want, 1e-12) {
		t.Errorf("sigma_1 = %v, want %v", got[1], want)
	}
	for _, lambda := range []float64{0, 1, -0.5, math.NaN()} {
		if _, err := EWMAVolatility([]float64{0.01}, lambda); !errors.Is(err, errs.ErrDomain) {
			t.Errorf("lambda %v: %v", lambda, err)
		}
	}
}

func TestAnnualizeAndLogReturns(t *testing.T) {
	v, err := AnnualizedVolatility(0.01, TradingDaysPerYear)
	if err != nil || !almostEqual(v, 0.01*math.Sqrt(252), 1e-12) {
		t.Errorf("annualized = %v, %v", v, err)
	}
	r, err := LogReturns([]float64{100, 110, 99})
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(r[0], math.Log(1.1), 1e-12) || !almostEqual(r[1], math.Log(0.9), 1e-12) {
		t.Errorf("returns = %v", r)
	}
	if _, err := LogReturns([]float64{1, 0}); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("zero price: %v", err)
	}
}

func gaussianReturns(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.01 * rng.NormFloat64()
	}
	return out
}

func TestGARCH(t *testing.T) {
	if err := (GARCH11{Omega: 1e-6, Alpha: 0.5, Beta: 0.6}).Validate(); !errors.Is(err, errs.ErrStability) {
		t.Errorf("alpha+beta >= 1: %v", err)
	}
	if _, err := (GARCH11{Omega: 0, Alpha: 0.1, Beta: 0.8}).Volatility([]float64{0.01}); !errors.Is(err, errs.ErrStability) {
		t.Errorf("zero omega: %v", err)
	}

	g := GARCH11{Omega: 1e-5, Alpha: 0.1, Beta: 0.8}
	path, err := g.Volatility([]float64{0.02, -0.01, 0.0})
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(path[0], 0.02, 1e-12) {
		t.Errorf("sigma_0 = %v, want |r_0|", path[0])
	}
	if want := math.Sqrt(1e-5 + 0.1*4e-4 + 0.8*4e-4); !almostEqual(path[1], want, 1e-12) {
		t.Errorf("sigma_1 = %v, want %v", path[1], want)
	}
	if want := math.Sqrt(1e-5 + 0.1*1e-4 + 0.8*path[1]*path[1]); !almostEqual(path[2], want, 1e-12) {
		t.Errorf("sigma_2 = %v, want %v", path[2], want)
	}

	// the seed ignores the long-run variance
	seeded, err := (GARCH11{Omega: 1e-6, Alpha: 0.1, Beta: 0.8}).Volatility([]float64{0.01, 0.02})
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(seeded[0], 0.01, 1e-12) {
		t.Errorf("seeded sigma_0 = %v, want 0.01", seeded[0])
	}

	returns := gaussianReturns(300, 11)
	a, err := EstimateGARCH11(returns, 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EstimateGARCH11(returns, 3)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same seed gave %+v and %+v", a, b)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("estimate not stationary: %v", err)
	}
	if _, err := EstimateGARCH11([]float64{0.01}, 1); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("short returns: %v", err)
	}
}

func TestHestonDeterminismAndPositivity(t *testing.T) {
	h := HestonModel{V0: 0.04, Kappa: 2, Theta: 0.04, Xi: 0.9, Rho: -0.7}

	a, err := h.SimulateVariance(0.04, 1.0/252, 500, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := h.SimulateVariance(0.04, 1.0/252, 500, 42)
	if len(a) != 500 || a[0] != 0.2 {
		t.Fatalf("len = %d, first = %v", len(a), a[0])
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d differs: %v vs %v", i, a[i], b[i])
		}
		if a[i] < 0 || math.IsNaN(a[i]) {
			t.Fatalf("step %d: vol %v", i, a[i])
		}
	}

	p1, _ := h.SimulatePricesBatch(100, 0.05, 1, 20, 64, 9)
	p2, _ := h.SimulatePricesBatch(100, 0.05, 1, 20, 64, 9)
	for i := range p1 {
		if p1[i] != p2[i] || p1[i] <= 0 {
			t.Fatalf("path %d: %v vs %v", i, p1[i], p2[i])
		}
	}
	single, _ := h.SimulatePrice(100, 0.05, 1, 20, 9)
	if single != p1[0] {
		t.Errorf("path 0 = %v, single = %v", p1[0], single)
	}
}

func TestHestonValidate(t *testing.T) {
	cases := []struct {
		name string
		h    HestonModel
		want error
	}{
		{"negative v0", HestonModel{V0: -1, Kappa: 1, Theta: 0.04, Xi: 0.1}, errs.ErrDomain},
		{"rho above one", HestonModel{V0: 0.04, Kappa: 1, Theta: 0.04, Xi: 0.1, Rho: 1.5}, errs.ErrDomain},
		{"zero kappa", HestonModel{V0: 0.04, Kappa: 0, Theta: 0.04, Xi: 0.1}, errs.ErrStability},
		{"negative theta", HestonModel{V0: 0.04, Kappa: 1, Theta: -0.1, Xi: 0.1}, errs.ErrStability},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.h.Validate(); !errors.Is(err, c.want) {
				t.Errorf("got %v, want %v", err, c.want)
			}
		})
	}
}

func TestHestonWithoutVolOfVolMatchesBlackScholes(t *testing.T) {
	h := HestonModel{V0: 0.04, Kappa: 1, Theta: 0.04, Xi: 0, Rho: 0}
	got, err := h.CallPrice(100, 100, 0.05, 1, 50, 20000, 7)
	if err != nil {
		t.Fatal(err)
	}
	want := pricing.BlackScholesCall(100, 100, 0.05, 0, 0.2, 1)
	if !almostEqual(got, want, 0.5) {
		t.Errorf("mc call = %v, bsm = %v", got, want)
	}
}

func TestHestonCalibrateImprovesFit(t *testing.T) {
	truth := HestonModel{V0: 0.04, Kappa: 2, Theta: 0.05, Xi: 0.4, Rho: -0.6}
	cs := CalibrationSettings{Steps: 10, Paths: 300, Seed: 5, Evaluations: 150, Agents: 8, Generations: 4}
	strikes := []float64{90, 100, 110}
	market := make([]float64, len(strikes))
	for i, k := range strikes {
		p, err := truth.CallPrice(100, k, 0.03, 0.5, cs.Steps, cs.Paths, cs.Seed)
		if err != nil {
			t.Fatal(err)
		}
		market[i] = p
	}
	mse := func(h HestonModel) float64 {
		sum := 0.0
		for i, k := range strikes {
			p, err := h.CallPrice(100, k, 0.03, 0.5, cs.Steps, cs.Paths, cs.Seed)
			if err != nil {
				t.Fatal(err)
			}
			sum += (p - market[i]) * (p - market[i])
		}
		return sum / float64(len(strikes))
	}

	start := HestonModel{V0: 0.2, Kappa: 0.5, Theta: 0.2, Xi: 1, Rho: 0}
	fit, err := start.Calibrate(market, strikes, 100, 0.03, 0.5, cs)
	if err != nil {
		t.Fatal(err)
	}
	if err := fit.Validate(); err != nil {
		t.Fatal(err)
	}
	if before, after := mse(start), mse(fit); after >= before {
		t.Errorf("mse %v did not improve on %v", after, before)
	}

	if _, err := start.Calibrate(market, strikes[:2], 100, 0.03, 0.5, cs); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("mismatched strikes: %v", err)
	}
}

func flatCandles(n int) []ohlcv.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]ohlcv.Candle, n)
	for i := range out {
		out[i] = ohlcv.Candle{
			Date:  start.AddDate(0, 0, i),
			Open:  decimal.NewFromInt(100),
			High:  decimal.NewFromInt(101),
			Low:   decimal.NewFromInt(99),
			Close: decimal.NewFromInt(100),
		}
	}
	return out
}

func TestRangeEstimators(t *testing.T) {
	candles := flatCandles(30)
	hl := math.Log(101.0 / 99.0)
	rs := math.Log(1.01)*math.Log(1.01) + math.Log(0.99)*math.Log(0.99)
	n := 30.0
	k := 0.34 / (1.34 + (n+1)/(n-1))

	cases := []struct {
		name string
		est  RangeEstimator
		want float64
	}{
		{"parkinson", Parkinson, math.Sqrt(hl * hl / (4 * math.Ln2) * 252)},
		{"garman-klass", GarmanKlass, math.Sqrt(0.5 * hl * hl * 252)},
		{"rogers-satchell", RogersSatchell, math.Sqrt(rs * 252)},
		{"yang-zhang", YangZhang, math.Sqrt((1 - k) * rs * 252)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.est(candles)
			if err != nil {
				t.Fatal(err)
			}
			if !almostEqual(got, c.want, 1e-9) {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}

	bad := flatCandles(3)
	bad[1].High = decimal.NewFromInt(98)
	if _, err := Parkinson(bad); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("high below low: %v", err)
	}
	if _, err := YangZhang(flatCandles(2)); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("short history: %v", err)
	}
}

func TestByPeriodSkipsShortHistory(t *testing.T) {
	got := ParkinsonVolatilities(flatCandles(30))
	for _, name := range []string{"1w", "2w", "1m"} {
		if _, ok := got[name]; !ok {
			t.Errorf("missing period %s", name)
		}
	}
	for _, name := range []string{"3m", "6m", "1y"} {
		if _, ok := got[name]; ok {
			t.Errorf("unexpected period %s", name)
		}
	}
	if yz := YangZhangVolatilities(flatCandles(30)); len(yz) != 3 {
		t.Errorf("yang-zhang periods = %v", yz)
	}
}

func flatSurface(t *testing.T, vol float64) *surfaces.Surface {
	t.Helper()
	var pts []geometrics.Point3D
	for _, m := range []float64{0.5, 1, 1.5} {
		for _, y := range []float64{0, 1} {
			pts = append(pts, geometrics.NewPoint3D(m, y, vol))
		}
	}
	s, err := surfaces.FromPoints(pts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLocalVolatility(t *testing.T) {
	s := flatSurface(t, 0.2)
	for _, q := range [][2]float64{{1, 0.5}, {3, 5}, {0.1, -1}} {
		v, err := LocalVolatility(s, q[0], q[1])
		if err != nil {
			t.Fatal(err)
		}
		if !almostEqual(v, 0.2, 1e-12) {
			t.Errorf("vol at %v = %v", q, v)
		}
	}
	if _, err := LocalVolatility(nil, 1, 1); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("nil surface: %v", err)
	}

	path, err := SimulateLocalVolPath(100, 0.05, s, 1, 50, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 51 || path[0] != 100 {
		t.Fatalf("path = %v", path)
	}

	// a flat surface reduces to plain GBM on the same draws
	rng := rand.New(rand.NewSource(4))
	dt := 1.0 / 50
	spot := 100.0
	for i := 1; i <= 50; i++ {
		spot *= math.Exp((0.05-0.02)*dt + 0.2*math.Sqrt(dt)*rng.NormFloat64())
		if !almostEqual(path[i], spot, 1e-9) {
			t.Fatalf("step %d: %v vs %v", i, path[i], spot)
		}
	}
}

func TestImpliedVolatilitySmileRoundTrip(t *testing.T) {
	template := options.Option{
		Style:             options.Call,
		Side:              options.Long,
		Type:              options.European,
		UnderlyingSymbol:  "TEST",
		Expiration:        options.Days(positive.MustParse("90")),
		ImpliedVolatility: positive.MustParse("0.25"),
		Quantity:          positive.ONE,
		UnderlyingPrice:   positive.MustParse("100"),
		RiskFreeRate:      decimal.NewFromFloat(0.03),
	}
	strikes := []positive.Positive{positive.MustParse("90"), positive.MustParse("100"), positive.MustParse("110")}
	prices := make([]decimal.Decimal, len(strikes))
	for i, k := range strikes {
		opt := template
		opt.Strike = k
		p, err := pricing.BlackScholes(opt)
		if err != nil {
			t.Fatal(err)
		}
		prices[i] = p
	}

	template.ImpliedVolatility = positive.MustParse("0.5")
	smile, err := ImpliedVolatilitySmile(prices, strikes, template)
	if err != nil {
		t.Fatal(err)
	}
	for i, res := range smile {
		if !res.Known || !almostEqual(res.Value.Float64(), 0.25, 1e-4) {
			t.Errorf("strike %s: %+v", strikes[i], res)
		}
	}
	if _, err := ImpliedVolatilitySmile(prices[:1], strikes, template); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("mismatched lengths: %v", err)
	}
}
