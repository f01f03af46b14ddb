package surfaces

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// plane builds z = a + b·x + c·y on an n × n unit grid.
func plane(t *testing.T, a, b, c float64, n int) *Surface {
	t.Helper()
	s, err := New(Parametric{
		F: func(x, y decimal.Decimal) (geometrics.Point3D, error) {
			z := d(a).Add(d(b).Mul(x)).Add(d(c).Mul(y))
			return geometrics.Point3D{X: x, Y: y, Z: z}, nil
		},
		Params: geometrics.Params3D{
			XStart: decimal.Zero, XEnd: d(float64(n - 1)), XSteps: n,
			YStart: decimal.Zero, YEnd: d(float64(n - 1)), YSteps: n,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParametricGridIsRowMajor(t *testing.T) {
	s := plane(t, 1, 2, 3, 4)
	if s.Len() != 16 {
		t.Fatalf("len = %d", s.Len())
	}
	pts := s.Points()
	for i := 1; i < len(pts); i++ {
		if geometrics.Compare3D(pts[i-1], pts[i]) >= 0 {
			t.Fatalf("points not strictly ordered at %d", i)
		}
	}
	if !pts[1].X.IsZero() || !pts[1].Y.Equal(d(1)) {
		t.Errorf("second point = %v, expected (0, 1)", pts[1])
	}
	if r := s.YRange(); !r.Max.Equal(d(3)) {
		t.Errorf("y range = %+v", r)
	}

	_, err := New(Parametric{
		F:      func(x, y decimal.Decimal) (geometrics.Point3D, error) { return geometrics.Point3D{X: x, Y: y}, nil },
		Params: geometrics.Params3D{XEnd: d(1), XSteps: 2, YEnd: d(1), YSteps: 1},
	})
	if !errors.Is(err, errs.ErrDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}

func TestBilinearIsExactOnPlanes(t *testing.T) {
	s := plane(t, 1, 2, 3, 4)
	p, err := s.Interpolate(d(1.5), d(2.25), geometrics.Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Z.Equal(d(1 + 3 + 6.75)) {
		t.Errorf("z = %s", p.Z)
	}
	for _, n := range s.Points() {
		got, err := s.Bilinear(n.X, n.Y)
		if err != nil || !got.Z.Equal(n.Z) {
			t.Fatalf("identity failed at %v: %v %v", n, got, err)
		}
	}
	if _, err := s.Bilinear(d(4), d(0)); !errors.Is(err, errs.ErrOutOfDomain) {
		t.Errorf("expected out of domain, got %v", err)
	}
	if _, err := s.Interpolate(d(1), d(1), geometrics.Spline); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("spline on surface: %v", err)
	}
}

func TestTrilinear(t *testing.T) {
	lower := plane(t, 0, 1, 0, 3)
	upper := plane(t, 10, 1, 0, 3)
	got, err := Trilinear(lower, upper, d(0), d(2), d(0.5), d(0.5), d(1))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(d(5.5)) {
		t.Errorf("got %s", got)
	}
	if _, err := Trilinear(lower, upper, d(1), d(1), d(0), d(0), d(1)); !errors.Is(err, errs.ErrDegenerateGrid) {
		t.Errorf("expected degenerate layers, got %v", err)
	}
}

func TestMergeSurfaces(t *testing.T) {
	a := plane(t, 1, 0, 0, 3)
	b := plane(t, 2, 1, 1, 3)
	sum, err := Merge([]*Surface{a, b}, geometrics.Add)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Len() != 9 {
		t.Fatalf("len = %d", sum.Len())
	}
	if v := sum.Values(d(2), d(1)); len(v) != 1 || !v[0].Equal(d(6)) {
		t.Errorf("sum at (2,1) = %v", v)
	}

	// a finer grid contributes its interior nodes
	fine, err := FromPoints([]geometrics.Point3D{
		geometrics.NewPoint3D(0, 0, 0), geometrics.NewPoint3D(0, 2, 0),
		geometrics.NewPoint3D(1, 1, 0),
		geometrics.NewPoint3D(2, 0, 0), geometrics.NewPoint3D(2, 2, 0),
		geometrics.NewPoint3D(0.5, 0, 0), geometrics.NewPoint3D(0.5, 2, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	merged, err := a.Add(fine)
	if err != nil {
		t.Fatal(err)
	}
	if !merged.Contains(d(0.5), d(0)) {
		t.Error("union node (0.5, 0) missing")
	}

	zero := plane(t, 0, 0, 0, 3)
	if _, err := a.Div(zero); !errors.Is(err, errs.ErrArithmetic) {
		t.Errorf("expected arithmetic error, got %v", err)
	}
	if _, err := Merge(nil, geometrics.Add); !errors.Is(err, errs.ErrDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}

func TestMergeCommutesForSymmetricOps(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	random := func() *Surface {
		var pts []geometrics.Point3D
		for x := 0; x < 4; x++ {
			for y := 0; y < 4; y++ {
				pts = append(pts, geometrics.NewPoint3D(float64(x), float64(y), float64(rng.Intn(100))))
			}
		}
		s, err := FromPoints(pts)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	a, b, c := random(), random(), random()
	for _, op := range []geometrics.MergeOperation{geometrics.Add, geometrics.Multiply, geometrics.Max, geometrics.Min} {
		ab, _ := Merge([]*Surface{a, b}, op)
		left, _ := Merge([]*Surface{ab, c}, op)
		bc, _ := Merge([]*Surface{b, c}, op)
		right, _ := Merge([]*Surface{a, bc}, op)
		rev, _ := Merge([]*Surface{c, b, a}, op)
		lp, rp, vp := left.Points(), right.Points(), rev.Points()
		for i := range lp {
			if !lp[i].Equal(rp[i]) || !lp[i].Equal(vp[i]) {
				t.Fatalf("%s: node %d differs %v %v %v", op, i, lp[i], rp[i], vp[i])
			}
		}
	}
}

func TestAxisOperations(t *testing.T) {
	s := plane(t, 0, 1, 10, 3)

	px, err := s.Project(geometrics.AxisX)
	if err != nil {
		t.Fatal(err)
	}
	// mean over y of x + 10y is x + 10
	if p := px.Points()[2]; !p.X.Equal(d(2)) || !p.Y.Equal(d(12)) {
		t.Errorf("projection point = %v", p)
	}

	slice, err := s.Slice(geometrics.AxisX, d(0.5))
	if err != nil {
		t.Fatal(err)
	}
	if slice.Len() != 3 || !slice.Points()[1].Y.Equal(d(10.5)) {
		t.Errorf("slice = %v", slice.Points())
	}
	if _, err := s.Slice(geometrics.AxisY, d(7)); !errors.Is(err, errs.ErrOutOfDomain) {
		t.Errorf("expected out of domain, got %v", err)
	}

	p, err := s.ClosestPoint(d(1.9), d(0.2))
	if err != nil {
		t.Fatal(err)
	}
	if !p.X.Equal(d(2)) || !p.Y.IsZero() {
		t.Errorf("closest = %v", p)
	}

	r, err := s.RestrictDomain(geometrics.Range{Min: d(0), Max: d(1)}, geometrics.Range{Min: d(1), Max: d(2)})
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 4 {
		t.Errorf("restricted len = %d", r.Len())
	}

	big := plane(t, 0, 1, 1, 5)
	thin, err := big.Decimate(2)
	if err != nil {
		t.Fatal(err)
	}
	if thin.Len() != 9 {
		t.Errorf("decimated len = %d", thin.Len())
	}
	if got := s.MergeIndexes(big); len(got) != 9 {
		t.Errorf("merge indexes = %d", len(got))
	}
}

func TestSurfaceMetrics(t *testing.T) {
	s := plane(t, 0, 1, 1, 3)
	m, err := s.Metrics()
	if err != nil {
		t.Fatal(err)
	}
	// z over the 3×3 grid has mean 2
	if !m.Basic.Mean.Equal(d(2)) {
		t.Errorf("mean = %s", m.Basic.Mean)
	}
	if !m.Range.Max.Y.Equal(d(4)) {
		t.Errorf("max = %v", m.Range.Max)
	}

	one, _ := FromPoints([]geometrics.Point3D{geometrics.NewPoint3D(0, 0, 1)})
	if _, err := one.Metrics(); !errors.Is(err, errs.ErrInsufficientData) {
		t.Errorf("expected insufficient data, got %v", err)
	}
}
