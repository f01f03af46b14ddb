package surfaces

import (
	"sort"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/shopspring/decimal"
)

// Interpolate evaluates the surface at (x, y). Only Bilinear applies to a
// single surface; Trilinear layers two surfaces, see Trilinear.
func (s *Surface) Interpolate(x, y decimal.Decimal, kind geometrics.InterpolationType) (geometrics.Point3D, error) {
	if kind != geometrics.Bilinear {
		return geometrics.Point3D{}, errs.Domain("surfaces.Interpolate", "%s interpolation is not defined on a surface", kind)
	}
	return s.Bilinear(x, y)
}

// Bilinear uses the nearest x columns on either side of x, interpolates each
// linearly in y, then blends the two results linearly in x. On a full
// rectangular grid this is the four-corner formula.
func (s *Surface) Bilinear(x, y decimal.Decimal) (geometrics.Point3D, error) {
	const op = "surfaces.Bilinear"
	if len(s.points) < 2 {
		return geometrics.Point3D{}, errs.InsufficientData(op, "need at least 2 points, got %d", len(s.points))
	}
	if p, ok := s.find(x, y); ok {
		return p, nil
	}
	xs := s.XValues()
	if x.LessThan(xs[0]) || x.GreaterThan(xs[len(xs)-1]) {
		return geometrics.Point3D{}, errs.OutOfDomain(op, "x=%s outside [%s, %s]", x, xs[0], xs[len(xs)-1])
	}
	i := sort.Search(len(xs), func(i int) bool { return xs[i].GreaterThanOrEqual(x) })
	if xs[i].Equal(x) {
		z, err := columnValue(op, s.column(x), y)
		if err != nil {
			return geometrics.Point3D{}, err
		}
		return geometrics.Point3D{X: x, Y: y, Z: z}, nil
	}
	x0, x1 := xs[i-1], xs[i]
	z0, err := columnValue(op, s.column(x0), y)
	if err != nil {
		return geometrics.Point3D{}, err
	}
	z1, err := columnValue(op, s.column(x1), y)
	if err != nil {
		return geometrics.Point3D{}, err
	}
	return geometrics.Point3D{X: x, Y: y, Z: geometrics.Lerp(x0, z0, x1, z1, x)}, nil
}

// columnValue interpolates z along y within one x column.
func columnValue(op string, col []geometrics.Point3D, y decimal.Decimal) (decimal.Decimal, error) {
	if len(col) == 0 {
		return decimal.Zero, errs.OutOfDomain(op, "no samples in column")
	}
	if y.LessThan(col[0].Y) || y.GreaterThan(col[len(col)-1].Y) {
		return decimal.Zero, errs.OutOfDomain(op, "y=%s outside [%s, %s] at x=%s", y, col[0].Y, col[len(col)-1].Y, col[0].X)
	}
	j := sort.Search(len(col), func(j int) bool { return col[j].Y.GreaterThanOrEqual(y) })
	if col[j].Y.Equal(y) {
		return col[j].Z, nil
	}
	return geometrics.Lerp(col[j-1].Y, col[j-1].Z, col[j].Y, col[j].Z, y), nil
}

// Trilinear treats lower and upper as the layers w = w0 and w = w1 and
// blends their bilinear values at (x, y) linearly in w.
func Trilinear(lower, upper *Surface, w0, w1, x, y, w decimal.Decimal) (decimal.Decimal, error) {
	const op = "surfaces.Trilinear"
	if !w1.GreaterThan(w0) {
		return decimal.Zero, errs.DegenerateGrid(op, "layer coordinates %s and %s are not increasing", w0, w1)
	}
	if w.LessThan(w0) || w.GreaterThan(w1) {
		return decimal.Zero, errs.OutOfDomain(op, "w=%s outside [%s, %s]", w, w0, w1)
	}
	a, err := lower.Bilinear(x, y)
	if err != nil {
		return decimal.Zero, err
	}
	b, err := upper.Bilinear(x, y)
	if err != nil {
		return decimal.Zero, err
	}
	return geometrics.Lerp(w0, a.Z, w1, b.Z, w), nil
}
