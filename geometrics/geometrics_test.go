package geometrics

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/shopspring/decimal"
)

func TestLinspace(t *testing.T) {
	got, err := Linspace("test", decimal.Zero, decimal.NewFromInt(1), 5)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"0", "0.25", "0.5", "0.75", "1"}
	for i, w := range want {
		if !got[i].Equal(decimal.RequireFromString(w)) {
			t.Errorf("t[%d] = %s, want %s", i, got[i], w)
		}
	}

	for _, steps := range []int{-1, 0, 1} {
		if _, err := Linspace("test", decimal.Zero, decimal.NewFromInt(1), steps); !errors.Is(err, errs.ErrDomain) {
			t.Errorf("steps=%d: expected domain error, got %v", steps, err)
		}
	}
}

func TestEvaluateKeepsOrderAndReturnsError(t *testing.T) {
	out, err := Evaluate(context.Background(), 1000, func(i int) (int, error) { return i * i, nil })
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != i*i {
			t.Fatalf("out[%d] = %d", i, v)
		}
	}

	boom := errors.New("boom")
	_, err = Evaluate(context.Background(), 100, func(i int) (int, error) {
		if i == 42 {
			return 0, boom
		}
		return i, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestCanonicalRejectsDuplicates(t *testing.T) {
	pts := []Point2D{NewPoint2D(2, 1), NewPoint2D(1, 5), NewPoint2D(3, 0)}
	got, err := Canonical2D("test", pts)
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].X.Equal(decimal.NewFromInt(1)) || !got[2].X.Equal(decimal.NewFromInt(3)) {
		t.Errorf("not sorted: %v", got)
	}
	if !pts[0].X.Equal(decimal.NewFromInt(2)) {
		t.Error("input was reordered in place")
	}

	dup := append(pts, Point2D{X: decimal.RequireFromString("2.0"), Y: decimal.Zero})
	if _, err := Canonical2D("test", dup); !errors.Is(err, errs.ErrDegenerateGrid) {
		t.Errorf("expected degenerate grid, got %v", err)
	}

	pts3 := []Point3D{NewPoint3D(1, 2, 0), NewPoint3D(1, 1, 0), NewPoint3D(0, 5, 0)}
	got3, err := Canonical3D("test", pts3)
	if err != nil {
		t.Fatal(err)
	}
	if !got3[0].X.IsZero() || !got3[1].Y.Equal(decimal.NewFromInt(1)) {
		t.Errorf("not row-major: %v", got3)
	}
	if _, err := Canonical3D("test", append(pts3, NewPoint3D(1, 1, 9))); !errors.Is(err, errs.ErrDegenerateGrid) {
		t.Errorf("expected degenerate grid, got %v", err)
	}
}

func TestMergeOperations(t *testing.T) {
	a, b := decimal.NewFromInt(6), decimal.NewFromInt(3)
	tests := []struct {
		op   MergeOperation
		want int64
	}{
		{Add, 9}, {Subtract, 3}, {Multiply, 18}, {Divide, 2}, {Max, 6}, {Min, 3},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			got, err := tt.op.Apply(a, b)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("got %s, want %d", got, tt.want)
			}
		})
	}
	if _, err := Divide.Apply(a, decimal.Zero); !errors.Is(err, errs.ErrArithmetic) {
		t.Errorf("expected arithmetic error, got %v", err)
	}
	if _, err := Add.Fold(nil); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}

func TestMetricsOnKnownSample(t *testing.T) {
	pts := make([]Point2D, 0, 5)
	for i, y := range []float64{1, 2, 2, 3, 7} {
		pts = append(pts, NewPoint2D(float64(i), y))
	}
	m, err := Compute("test", pts)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Basic.Mean.Equal(decimal.NewFromInt(3)) {
		t.Errorf("mean = %s", m.Basic.Mean)
	}
	if !m.Basic.Median.Equal(decimal.NewFromInt(2)) || !m.Basic.Mode.Equal(decimal.NewFromInt(2)) {
		t.Errorf("median/mode = %s/%s", m.Basic.Median, m.Basic.Mode)
	}
	// population variance of {1,2,2,3,7} is 22/5
	if got := m.Basic.StdDev.InexactFloat64(); math.Abs(got-math.Sqrt(4.4)) > 1e-12 {
		t.Errorf("std = %v", got)
	}
	if !m.Range.Min.Y.Equal(decimal.NewFromInt(1)) || !m.Range.Max.Y.Equal(decimal.NewFromInt(7)) {
		t.Errorf("range = %+v", m.Range)
	}
	if !m.Range.Range.Equal(decimal.NewFromInt(6)) {
		t.Errorf("range width = %s", m.Range.Range)
	}
	if m.Shape.Skewness.Sign() <= 0 {
		t.Errorf("right-skewed sample has skewness %s", m.Shape.Skewness)
	}
	if m.Trend.Slope.Sign() <= 0 {
		t.Errorf("slope = %s", m.Trend.Slope)
	}
	// windows 3 and 5 fit, 7 does not
	if len(m.Trend.MovingAverage) != 3+1 {
		t.Errorf("moving average points = %d", len(m.Trend.MovingAverage))
	}
	if m.Risk.ValueAtRisk.GreaterThanOrEqual(m.Basic.Mean) {
		t.Errorf("VaR %s not below mean", m.Risk.ValueAtRisk)
	}
	if !m.Risk.ExpectedShortfall.IsZero() {
		t.Errorf("no sample is below VaR, got ES %s", m.Risk.ExpectedShortfall)
	}
}

func TestMetricsConstantSample(t *testing.T) {
	pts := []Point2D{NewPoint2D(0, 4), NewPoint2D(1, 4), NewPoint2D(2, 4)}
	m, err := Compute("test", pts)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Trend.RSquared.Equal(decimal.NewFromInt(1)) {
		t.Errorf("R² = %s", m.Trend.RSquared)
	}
	if !m.Risk.Volatility.IsZero() || !m.Risk.SharpeRatio.IsZero() {
		t.Errorf("risk = %+v", m.Risk)
	}
	if len(m.Shape.Peaks) != 0 || len(m.Shape.Valleys) != 0 {
		t.Errorf("flat sample has extrema: %+v", m.Shape)
	}
}

func TestMetricsPeaksAndInflections(t *testing.T) {
	var pts []Point2D
	for i := 0; i < 64; i++ {
		x := float64(i) * 2 * math.Pi / 63
		pts = append(pts, NewPoint2D(x, math.Sin(x)))
	}
	m, err := ComputeShape("test", pts)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Peaks) != 1 || len(m.Valleys) != 1 {
		t.Fatalf("peaks=%d valleys=%d", len(m.Peaks), len(m.Valleys))
	}
	if len(m.InflectionPoints) != 1 {
		t.Errorf("inflection points = %d", len(m.InflectionPoints))
	}
}

func TestMetricsRequireTwoPoints(t *testing.T) {
	for _, pts := range [][]Point2D{nil, {NewPoint2D(0, 1)}} {
		if _, err := Compute("test", pts); !errors.Is(err, errs.ErrInsufficientData) {
			t.Errorf("len=%d: got %v", len(pts), err)
		}
	}
}

func TestOrderFreeStatisticsIgnorePermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ys := make([]float64, 50)
	for i := range ys {
		ys[i] = rng.NormFloat64()
	}
	build := func(perm []int) []Point2D {
		pts := make([]Point2D, len(perm))
		for i, j := range perm {
			pts[i] = NewPoint2D(float64(i), ys[j])
		}
		return pts
	}
	ident := make([]int, len(ys))
	for i := range ident {
		ident[i] = i
	}
	a, _ := ComputeBasic("test", build(ident))
	b, _ := ComputeBasic("test", build(rng.Perm(len(ys))))
	if !a.Mean.Equal(b.Mean) || !a.Median.Equal(b.Median) || !a.Mode.Equal(b.Mode) || !a.StdDev.Equal(b.StdDev) {
		t.Errorf("basic metrics differ: %+v vs %+v", a, b)
	}
	ra, _ := ComputeRisk("test", build(ident))
	rb, _ := ComputeRisk("test", build(rng.Perm(len(ys))))
	if !ra.ValueAtRisk.Equal(rb.ValueAtRisk) || !ra.ExpectedShortfall.Equal(rb.ExpectedShortfall) || !ra.SharpeRatio.Equal(rb.SharpeRatio) {
		t.Errorf("risk metrics differ: %+v vs %+v", ra, rb)
	}
}
