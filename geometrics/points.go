// Package geometrics holds the pieces curves and surfaces share: point types,
// construction parameters, merge and interpolation enums and the metric
// records with the statistics behind them.
package geometrics

import (
	"fmt"
	"sort"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/shopspring/decimal"
)

type Point2D struct {
	X decimal.Decimal `json:"x"`
	Y decimal.Decimal `json:"y"`
}

type Point3D struct {
	X decimal.Decimal `json:"x"`
	Y decimal.Decimal `json:"y"`
	Z decimal.Decimal `json:"z"`
}

func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: decimal.NewFromFloat(x), Y: decimal.NewFromFloat(y)}
}

func NewPoint3D(x, y, z float64) Point3D {
	return Point3D{X: decimal.NewFromFloat(x), Y: decimal.NewFromFloat(y), Z: decimal.NewFromFloat(z)}
}

func (p Point2D) String() string { return fmt.Sprintf("(%s, %s)", p.X, p.Y) }

func (p Point3D) String() string { return fmt.Sprintf("(%s, %s, %s)", p.X, p.Y, p.Z) }

// Equal compares numerically, so 1.0 and 1 are the same coordinate.
func (p Point2D) Equal(o Point2D) bool { return p.X.Equal(o.X) && p.Y.Equal(o.Y) }

func (p Point3D) Equal(o Point3D) bool {
	return p.X.Equal(o.X) && p.Y.Equal(o.Y) && p.Z.Equal(o.Z)
}

// Compare3D orders points row-major by (x, y).
func Compare3D(a, b Point3D) int {
	if c := a.X.Cmp(b.X); c != 0 {
		return c
	}
	return a.Y.Cmp(b.Y)
}

// Canonical2D returns a copy of points sorted by x. Repeated abscissae are
// rejected.
func Canonical2D(op string, points []Point2D) ([]Point2D, error) {
	out := make([]Point2D, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return out[i].X.LessThan(out[j].X) })
	for i := 1; i < len(out); i++ {
		if out[i].X.Equal(out[i-1].X) {
			return nil, errs.DegenerateGrid(op, "duplicate abscissa x=%s", out[i].X)
		}
	}
	return out, nil
}

// Canonical3D returns a copy of points sorted by (x, y). Repeated (x, y)
// pairs are rejected.
func Canonical3D(op string, points []Point3D) ([]Point3D, error) {
	out := make([]Point3D, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return Compare3D(out[i], out[j]) < 0 })
	for i := 1; i < len(out); i++ {
		if Compare3D(out[i], out[i-1]) == 0 {
			return nil, errs.DegenerateGrid(op, "duplicate abscissa (%s, %s)", out[i].X, out[i].Y)
		}
	}
	return out, nil
}

// UniqueSorted returns the distinct values of xs in ascending order.
func UniqueSorted(xs []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(xs))
	copy(out, xs)
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	n := 0
	for i, x := range out {
		if i == 0 || !x.Equal(out[n-1]) {
			out[n] = x
			n++
		}
	}
	return out[:n]
}

// Range is a closed interval on one axis.
type Range struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

func (r Range) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(r.Min) && v.LessThanOrEqual(r.Max)
}

// Intersect returns the overlap of r and o; ok is false when they are disjoint.
func (r Range) Intersect(o Range) (Range, bool) {
	lo := decimal.Max(r.Min, o.Min)
	hi := decimal.Min(r.Max, o.Max)
	if lo.GreaterThan(hi) {
		return Range{}, false
	}
	return Range{Min: lo, Max: hi}, true
}
