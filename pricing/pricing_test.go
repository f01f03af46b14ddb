package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/shopspring/decimal"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func f(d decimal.Decimal) float64 { return d.InexactFloat64() }

func atmOption(style options.OptionStyle) options.Option {
	return options.Option{
		Style:             style,
		Side:              options.Long,
		Type:              options.European,
		UnderlyingSymbol:  "TEST",
		Strike:            positive.MustParse("100"),
		Expiration:        options.Days(positive.MustParse("365")),
		ImpliedVolatility: positive.MustParse("0.2"),
		Quantity:          positive.ONE,
		UnderlyingPrice:   positive.MustParse("100"),
		RiskFreeRate:      decimal.NewFromFloat(0.05),
	}
}

func TestBlackScholesReferenceValues(t *testing.T) {
	call, err := BlackScholes(atmOption(options.Call))
	if err != nil {
		t.Fatal(err)
	}
	put, err := BlackScholes(atmOption(options.Put))
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(f(call), 10.450583572185565, 1e-9) {
		t.Errorf("call = %s, want 10.4506", call)
	}
	if !almostEqual(f(put), 5.573526022256971, 1e-9) {
		t.Errorf("put = %s, want 5.5735", put)
	}

	g, err := CalculateGreeks(atmOption(options.Call))
	if err != nil {
		t.Fatal(err)
	}
	checks := []struct {
		name      string
		got, want float64
		tol       float64
	}{
		{"delta", f(g.Delta), 0.6368, 1e-4},
		{"gamma", f(g.Gamma), 0.01876, 1e-5},
		{"vega", f(g.Vega), 37.524, 1e-3},
		{"theta", f(g.Theta), -6.414027546438197, 1e-9},
		{"rho", f(g.Rho), 53.232481545376345, 1e-9},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want, c.tol) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestPutCallParity(t *testing.T) {
	for _, spot := range []float64{60, 95, 100, 140} {
		for _, vol := range []float64{0.05, 0.2, 0.8} {
			for _, q := range []float64{0, 0.03} {
				for _, days := range []int64{1, 30, 365, 1000} {
					opt := atmOption(options.Call)
					opt.UnderlyingPrice = positive.MustNewFromFloat(spot)
					opt.ImpliedVolatility = positive.MustNewFromFloat(vol)
					opt.DividendYield = positive.MustNewFromFloat(q)
					opt.Expiration = options.Days(positive.MustNew(decimal.NewFromInt(days)))

					c, err := BlackScholes(opt)
					if err != nil {
						t.Fatal(err)
					}
					p, err := BlackScholes(opt.WithStyle(options.Put))
					if err != nil {
						t.Fatal(err)
					}
					T := float64(days) / options.DaysInYear
					want := spot*math.Exp(-q*T) - 100*math.Exp(-0.05*T)
					if !almostEqual(f(c)-f(p), want, 1e-8) {
						t.Fatalf("parity broken S=%v vol=%v q=%v days=%d: %v vs %v", spot, vol, q, days, f(c)-f(p), want)
					}
				}
			}
		}
	}
}

func TestGreekSigns(t *testing.T) {
	for _, spot := range []float64{70, 100, 130} {
		for _, style := range []options.OptionStyle{options.Call, options.Put} {
			opt := atmOption(style)
			opt.UnderlyingPrice = positive.MustNewFromFloat(spot)
			g, err := CalculateGreeks(opt)
			if err != nil {
				t.Fatal(err)
			}
			delta := f(g.Delta)
			if style == options.Call && !(delta > 0 && delta < 1) {
				t.Errorf("call delta %v outside (0,1) at S=%v", delta, spot)
			}
			if style == options.Put && !(delta > -1 && delta < 0) {
				t.Errorf("put delta %v outside (-1,0) at S=%v", delta, spot)
			}
			if g.Gamma.IsNegative() {
				t.Errorf("negative gamma at S=%v", spot)
			}
			if g.Vega.IsNegative() {
				t.Errorf("negative vega at S=%v", spot)
			}
		}
	}
}

func TestGreeksScaleWithQuantityAndSide(t *testing.T) {
	base, err := CalculateGreeks(atmOption(options.Call))
	if err != nil {
		t.Fatal(err)
	}
	opt := atmOption(options.Call).WithQuantity(positive.MustParse("3")).WithSide(options.Short)
	scaled, err := CalculateGreeks(opt)
	if err != nil {
		t.Fatal(err)
	}
	pairs := [][2]decimal.Decimal{
		{base.Delta, scaled.Delta}, {base.Gamma, scaled.Gamma}, {base.Vega, scaled.Vega},
		{base.Theta, scaled.Theta}, {base.Vanna, scaled.Vanna}, {base.Speed, scaled.Speed},
		{base.Ultima, scaled.Ultima}, {base.Color, scaled.Color},
	}
	for i, p := range pairs {
		if !p[0].Mul(decimal.NewFromInt(-3)).Equal(p[1]) {
			t.Errorf("pair %d: %s * -3 != %s", i, p[0], p[1])
		}
	}
}

func TestSpeedMatchesClosedForm(t *testing.T) {
	in, err := inputsFrom(atmOption(options.Call))
	if err != nil {
		t.Fatal(err)
	}
	g := bsmGreeks(in, DefaultBumps)
	d1, _ := in.d1d2()
	want := -g.gamma / in.S * (d1/(in.sigma*math.Sqrt(in.T)) + 1)
	if !almostEqual(g.speed, want, 1e-7) {
		t.Fatalf("speed = %v, closed form %v", g.speed, want)
	}
	wantUltima := -g.vega / (in.sigma * in.sigma) * (d1*(d1-in.sigma)*(1-d1*(d1-in.sigma)) + d1*d1 + (d1-in.sigma)*(d1-in.sigma))
	if !almostEqual(g.ultima, wantUltima, 1e-4) {
		t.Fatalf("ultima = %v, closed form %v", g.ultima, wantUltima)
	}
}

func TestZeroDaysUsesIntrinsic(t *testing.T) {
	opt := atmOption(options.Call)
	opt.Expiration = options.Days(positive.ZERO)
	opt.UnderlyingPrice = positive.MustParse("110")

	p, err := BlackScholes(opt)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("price = %s, want 10", p)
	}
	g, err := CalculateGreeks(opt)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Delta.Equal(decimal.NewFromInt(1)) || !g.Gamma.IsZero() || !g.Vega.IsZero() {
		t.Fatalf("unexpected intrinsic greeks %+v", g)
	}
}

func TestBinomialConvergesToBlackScholes(t *testing.T) {
	wantDelta := map[options.OptionStyle]float64{options.Call: 0.6368, options.Put: 0.6368 - 1}
	for _, style := range []options.OptionStyle{options.Call, options.Put} {
		opt := atmOption(style)
		bs, _ := BlackScholes(opt)
		tree, err := Binomial(opt, 500)
		if err != nil {
			t.Fatal(err)
		}
		if !almostEqual(f(tree.Price), f(bs), 0.01) {
			t.Errorf("%v: tree %s vs bs %s", style, tree.Price, bs)
		}
		if !almostEqual(f(tree.Delta), wantDelta[style], 0.01) {
			t.Errorf("%v: tree delta %s", style, tree.Delta)
		}
	}
}

func TestAmericanPut(t *testing.T) {
	opt := atmOption(options.Put)
	european, _ := BlackScholes(opt)

	opt.Type = options.American
	res, err := Binomial(opt, 400)
	if err != nil {
		t.Fatal(err)
	}
	if res.Price.LessThan(european) {
		t.Fatalf("american put %s below european %s", res.Price, european)
	}
	if !almostEqual(f(res.Price), 6.09, 0.03) {
		t.Fatalf("american put = %s, want about 6.09", res.Price)
	}

	found := false
	for _, bp := range res.Boundary {
		if bp.Spot.Valid {
			found = true
			if bp.Spot.Decimal.GreaterThan(decimal.NewFromInt(100)) {
				t.Fatalf("put exercised above strike at step %d: %s", bp.Step, bp.Spot.Decimal)
			}
		}
	}
	if !found {
		t.Fatal("expected an early exercise frontier")
	}

	p, err := Price(opt)
	if err != nil {
		t.Fatal(err)
	}
	if p.LessThan(european) {
		t.Fatal("dispatch to tree pricer lost the early exercise premium")
	}
}

func TestAmericanCallWithoutDividendsMatchesEuropean(t *testing.T) {
	opt := atmOption(options.Call)
	opt.Type = options.American
	res, err := Binomial(opt, 500)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(f(res.Price), 10.4506, 0.01) {
		t.Fatalf("american call = %s", res.Price)
	}
}

func TestTreeRejectsShallowTrees(t *testing.T) {
	if _, err := Binomial(atmOption(options.Call), 1); !errors.Is(err, errs.ErrDomain) {
		t.Fatalf("expected domain error, got %v", err)
	}
}

func TestTreePricerGreeksCloseToClosedForm(t *testing.T) {
	opt := atmOption(options.Call)
	tp := TreePricer{Steps: 300, Bumps: TreeBumps}
	if tp.Source() != Tree {
		t.Fatal("tree pricer must report Tree source")
	}
	g, err := tp.Greeks(opt)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(f(g.Delta), 0.6368, 0.01) {
		t.Errorf("delta = %s", g.Delta)
	}
	if !almostEqual(f(g.Vega), 37.52, 0.5) {
		t.Errorf("vega = %s", g.Vega)
	}
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	for _, vol := range []float64{0.05, 0.2, 0.65, 2.5} {
		for _, style := range []options.OptionStyle{options.Call, options.Put} {
			opt := atmOption(style)
			opt.ImpliedVolatility = positive.MustNewFromFloat(vol)
			price, err := BlackScholes(opt)
			if err != nil {
				t.Fatal(err)
			}
			res, err := ImpliedVolatility(opt, price)
			if err != nil {
				t.Fatal(err)
			}
			if !res.Known || !almostEqual(res.Value.Float64(), vol, 1e-8) {
				t.Fatalf("vol %v style %v: got %+v", vol, style, res)
			}
		}
	}
}

func TestImpliedVolatilityUnknownOutsideBracket(t *testing.T) {
	res, err := ImpliedVolatility(atmOption(options.Call), decimal.NewFromInt(150))
	if err != nil {
		t.Fatal(err)
	}
	if res.Known {
		t.Fatalf("price above spot cannot be matched, got %+v", res)
	}
	if _, err := ImpliedVolatility(atmOption(options.Call), decimal.NewFromInt(-1)); !errors.Is(err, errs.ErrDomain) {
		t.Fatalf("expected domain error, got %v", err)
	}
}

func TestBinaryParity(t *testing.T) {
	opt := atmOption(options.Call)
	opt.Type = options.Binary
	opt.Exotic = &options.ExoticParams{Payout: positive.MustParse("10")}

	call, err := Price(opt)
	if err != nil {
		t.Fatal(err)
	}
	put, err := Price(opt.WithStyle(options.Put))
	if err != nil {
		t.Fatal(err)
	}
	want := 10 * math.Exp(-0.05)
	if !almostEqual(f(call)+f(put), want, 1e-9) {
		t.Fatalf("binary call+put = %v, want %v", f(call)+f(put), want)
	}
	g, err := CalculateGreeks(opt)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Delta.IsPositive() {
		t.Fatalf("binary call delta should be positive, got %s", g.Delta)
	}
}

func TestAsianIsSeededAndCheaperThanEuropean(t *testing.T) {
	opt := atmOption(options.Call)
	opt.Type = options.Asian
	opt.Exotic = &options.ExoticParams{Paths: 4000, Steps: 50, Seed: 42}

	p1, err := Price(opt)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Price(opt)
	if err != nil {
		t.Fatal(err)
	}
	if !p1.Equal(p2) {
		t.Fatalf("same seed gave %s and %s", p1, p2)
	}
	if f(p1) <= 3 || f(p1) >= 10.45 {
		t.Fatalf("asian call %s outside plausible range", p1)
	}

	pricer, _ := For(opt)
	if pricer.Source() != Simulation {
		t.Fatal("asian pricer must report Simulation source")
	}
}

func TestProbabilityITM(t *testing.T) {
	call, err := ProbabilityITM(atmOption(options.Call))
	if err != nil {
		t.Fatal(err)
	}
	put, err := ProbabilityITM(atmOption(options.Put))
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(f(call)+f(put), 1, 1e-12) {
		t.Fatalf("probabilities %s + %s != 1", call, put)
	}
}

func TestShadowAndSkewGamma(t *testing.T) {
	up, down, err := ShadowGamma(atmOption(options.Call), 0.01, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if up.IsZero() || down.IsZero() {
		t.Fatalf("shadow gammas should be non-zero: %s %s", up, down)
	}
	sg, err := SkewGamma(atmOption(options.Call), 0.01)
	if err != nil {
		t.Fatal(err)
	}
	vomma, err := Vomma(atmOption(options.Call))
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(f(sg), f(vomma), 0.2) {
		t.Fatalf("skew gamma %s far from vomma %s", sg, vomma)
	}
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() {
		if err := Configure(DefaultTreeSteps, DefaultBumps); err != nil {
			t.Fatal(err)
		}
	})
	if err := Configure(1, DefaultBumps); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("one step: %v", err)
	}
	if err := Configure(100, Bumps{Spot: 1e-4}); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("zero bumps: %v", err)
	}
	if err := Configure(100, DefaultBumps); err != nil {
		t.Fatal(err)
	}
	opt := atmOption(options.Call)
	opt.Type = options.American
	p, err := For(opt)
	if err != nil {
		t.Fatal(err)
	}
	if tp, ok := p.(TreePricer); !ok || tp.Steps != 100 {
		t.Errorf("pricer = %#v", p)
	}
}

func TestClosedFormGreeksMatchFiniteDifferences(t *testing.T) {
	cases := []struct {
		name string
		in   inputs
	}{
		{"atm call", inputs{S: 100, K: 100, T: 0.5, r: 0.05, q: 0.02, sigma: 0.25, call: true}},
		{"atm put", inputs{S: 100, K: 100, T: 0.5, r: 0.05, q: 0.02, sigma: 0.25}},
		{"itm call high dividend", inputs{S: 110, K: 100, T: 1, r: 0.03, q: 0.04, sigma: 0.3, call: true}},
		{"otm put short dated", inputs{S: 90, K: 100, T: 0.25, r: 0.03, q: 0.01, sigma: 0.2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := bsmGreeks(tc.in, DefaultBumps)
			want, err := finiteDifferenceGreeks(bsmPrice, tc.in, DefaultBumps)
			if err != nil {
				t.Fatal(err)
			}
			for _, g := range []struct {
				name      string
				got, want float64
			}{
				{"delta", got.delta, want.delta},
				{"gamma", got.gamma, want.gamma},
				{"theta", got.theta, want.theta},
				{"vega", got.vega, want.vega},
				{"rho", got.rho, want.rho},
				{"rho_d", got.rhoD, want.rhoD},
				{"vanna", got.vanna, want.vanna},
				{"charm", got.charm, want.charm},
				{"speed", got.speed, want.speed},
				{"zomma", got.zomma, want.zomma},
				{"color", got.color, want.color},
				{"veta", got.veta, want.veta},
			} {
				if tol := 1e-3 * math.Max(1, math.Abs(g.want)); math.Abs(g.got-g.want) > tol {
					t.Errorf("%s = %v, finite difference %v", g.name, g.got, g.want)
				}
			}
		})
	}
}
