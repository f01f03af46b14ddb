package curves

import (
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/shopspring/decimal"
)

// AxisOperations queries and reshapes a curve along x.
type AxisOperations interface {
	Contains(x decimal.Decimal) bool
	IndexValues() []decimal.Decimal
	Values(x decimal.Decimal) []decimal.Decimal
	ClosestPoint(x decimal.Decimal) (geometrics.Point2D, error)
	MergeIndexes(other *Curve) []decimal.Decimal
	RestrictDomain(lo, hi decimal.Decimal) (*Curve, error)
	Decimate(n int) (*Curve, error)
}

var _ AxisOperations = (*Curve)(nil)

// Contains reports whether x is one of the curve's abscissae.
func (c *Curve) Contains(x decimal.Decimal) bool {
	i := c.search(x)
	return i < len(c.points) && c.points[i].X.Equal(x)
}

// IndexValues returns the abscissae in order.
func (c *Curve) IndexValues() []decimal.Decimal {
	out := make([]decimal.Decimal, len(c.points))
	for i, p := range c.points {
		out[i] = p.X
	}
	return out
}

// Values returns the ordinates stored at x; empty when x is not a grid point.
func (c *Curve) Values(x decimal.Decimal) []decimal.Decimal {
	i := c.search(x)
	if i < len(c.points) && c.points[i].X.Equal(x) {
		return []decimal.Decimal{c.points[i].Y}
	}
	return nil
}

// ClosestPoint returns the grid point nearest to x; ties go to the lower x.
func (c *Curve) ClosestPoint(x decimal.Decimal) (geometrics.Point2D, error) {
	if c.IsEmpty() {
		return geometrics.Point2D{}, errs.InsufficientData("curves.ClosestPoint", "empty curve")
	}
	i := c.search(x)
	switch {
	case i == 0:
		return c.points[0], nil
	case i == len(c.points):
		return c.points[i-1], nil
	}
	lo, hi := c.points[i-1], c.points[i]
	if x.Sub(lo.X).LessThanOrEqual(hi.X.Sub(x)) {
		return lo, nil
	}
	return hi, nil
}

// MergeIndexes returns the abscissae of both curves that fall inside their
// common range.
func (c *Curve) MergeIndexes(other *Curve) []decimal.Decimal {
	common, ok := c.XRange().Intersect(other.XRange())
	if !ok || c.IsEmpty() || other.IsEmpty() {
		return nil
	}
	return unionAbscissae([]*Curve{c, other}, common)
}

// RestrictDomain keeps the points with lo <= x <= hi.
func (c *Curve) RestrictDomain(lo, hi decimal.Decimal) (*Curve, error) {
	if hi.LessThan(lo) {
		return nil, errs.Domain("curves.RestrictDomain", "hi %s below lo %s", hi, lo)
	}
	r := geometrics.Range{Min: lo, Max: hi}
	var pts []geometrics.Point2D
	for _, p := range c.points {
		if r.Contains(p.X) {
			pts = append(pts, p)
		}
	}
	return &Curve{points: pts}, nil
}

// Decimate keeps every n-th point and always the last one.
func (c *Curve) Decimate(n int) (*Curve, error) {
	if n < 1 {
		return nil, errs.Domain("curves.Decimate", "step must be positive, got %d", n)
	}
	var pts []geometrics.Point2D
	for i := 0; i < len(c.points); i += n {
		pts = append(pts, c.points[i])
	}
	if last := len(c.points) - 1; last >= 0 && last%n != 0 {
		pts = append(pts, c.points[last])
	}
	return &Curve{points: pts}, nil
}

// Translate shifts every point by (dx, dy).
func (c *Curve) Translate(dx, dy decimal.Decimal) *Curve {
	pts := make([]geometrics.Point2D, len(c.points))
	for i, p := range c.points {
		pts[i] = geometrics.Point2D{X: p.X.Add(dx), Y: p.Y.Add(dy)}
	}
	return &Curve{points: pts}
}

// Scale multiplies the coordinates by (sx, sy). sx must be positive so the
// x order survives.
func (c *Curve) Scale(sx, sy decimal.Decimal) (*Curve, error) {
	if !sx.IsPositive() {
		return nil, errs.Domain("curves.Scale", "x scale must be positive, got %s", sx)
	}
	pts := make([]geometrics.Point2D, len(c.points))
	for i, p := range c.points {
		pts[i] = geometrics.Point2D{X: p.X.Mul(sx), Y: p.Y.Mul(sy)}
	}
	return &Curve{points: pts}, nil
}
