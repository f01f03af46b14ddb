package surfaces

import (
	"errors"

	"github.com/bcdannyboy/optionlab/curves"
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/shopspring/decimal"
)

// AxisOperations queries and reshapes a surface over its (x, y) nodes.
type AxisOperations interface {
	Contains(x, y decimal.Decimal) bool
	IndexValues() []geometrics.Point2D
	Values(x, y decimal.Decimal) []decimal.Decimal
	ClosestPoint(x, y decimal.Decimal) (geometrics.Point3D, error)
	MergeIndexes(other *Surface) []geometrics.Point2D
	Project(axis geometrics.Axis) (*curves.Curve, error)
	Slice(axis geometrics.Axis, value decimal.Decimal) (*curves.Curve, error)
	RestrictDomain(xr, yr geometrics.Range) (*Surface, error)
	Decimate(n int) (*Surface, error)
}

var _ AxisOperations = (*Surface)(nil)

func (s *Surface) Contains(x, y decimal.Decimal) bool {
	_, ok := s.find(x, y)
	return ok
}

// IndexValues returns the (x, y) nodes in row-major order.
func (s *Surface) IndexValues() []geometrics.Point2D {
	out := make([]geometrics.Point2D, len(s.points))
	for i, p := range s.points {
		out[i] = geometrics.Point2D{X: p.X, Y: p.Y}
	}
	return out
}

func (s *Surface) Values(x, y decimal.Decimal) []decimal.Decimal {
	if p, ok := s.find(x, y); ok {
		return []decimal.Decimal{p.Z}
	}
	return nil
}

// ClosestPoint returns the node nearest to (x, y) in the plane.
func (s *Surface) ClosestPoint(x, y decimal.Decimal) (geometrics.Point3D, error) {
	if s.IsEmpty() {
		return geometrics.Point3D{}, errs.InsufficientData("surfaces.ClosestPoint", "empty surface")
	}
	best := s.points[0]
	bestDist := dist2(best, x, y)
	for _, p := range s.points[1:] {
		if d := dist2(p, x, y); d.LessThan(bestDist) {
			best, bestDist = p, d
		}
	}
	return best, nil
}

func dist2(p geometrics.Point3D, x, y decimal.Decimal) decimal.Decimal {
	dx, dy := p.X.Sub(x), p.Y.Sub(y)
	return dx.Mul(dx).Add(dy.Mul(dy))
}

// MergeIndexes returns the nodes of both surfaces inside their common ranges.
func (s *Surface) MergeIndexes(other *Surface) []geometrics.Point2D {
	if s.IsEmpty() || other.IsEmpty() {
		return nil
	}
	xr, okx := s.XRange().Intersect(other.XRange())
	yr, oky := s.YRange().Intersect(other.YRange())
	if !okx || !oky {
		return nil
	}
	nodes, err := unionNodes([]*Surface{s, other}, xr, yr)
	if err != nil {
		return nil
	}
	out := make([]geometrics.Point2D, len(nodes))
	for i, n := range nodes {
		out[i] = geometrics.Point2D{X: n.X, Y: n.Y}
	}
	return out
}

// Project collapses the other horizontal axis by averaging z, giving a curve
// over the chosen axis.
func (s *Surface) Project(axis geometrics.Axis) (*curves.Curve, error) {
	var key func(geometrics.Point3D) decimal.Decimal
	switch axis {
	case geometrics.AxisX:
		key = func(p geometrics.Point3D) decimal.Decimal { return p.X }
	case geometrics.AxisY:
		key = func(p geometrics.Point3D) decimal.Decimal { return p.Y }
	default:
		return nil, errs.Domain("surfaces.Project", "cannot project onto %s", axis)
	}

	type acc struct {
		sum decimal.Decimal
		n   int64
	}
	groups := make(map[string]*acc)
	var order []decimal.Decimal
	for _, p := range s.points {
		k := key(p)
		g, ok := groups[k.String()]
		if !ok {
			g = &acc{}
			groups[k.String()] = g
			order = append(order, k)
		}
		g.sum = g.sum.Add(p.Z)
		g.n++
	}
	pts := make([]geometrics.Point2D, 0, len(order))
	for _, k := range order {
		g := groups[k.String()]
		pts = append(pts, geometrics.Point2D{X: k, Y: g.sum.Div(decimal.NewFromInt(g.n))})
	}
	return curves.FromPoints(pts)
}

// Slice cuts the surface at axis = value. Off-grid values are read by
// bilinear interpolation; nodes the cut cannot reach are skipped.
func (s *Surface) Slice(axis geometrics.Axis, value decimal.Decimal) (*curves.Curve, error) {
	const op = "surfaces.Slice"
	var (
		along []decimal.Decimal
		at    func(v decimal.Decimal) (decimal.Decimal, decimal.Decimal)
	)
	switch axis {
	case geometrics.AxisX:
		along = s.YValues()
		at = func(v decimal.Decimal) (decimal.Decimal, decimal.Decimal) { return value, v }
	case geometrics.AxisY:
		along = s.XValues()
		at = func(v decimal.Decimal) (decimal.Decimal, decimal.Decimal) { return v, value }
	default:
		return nil, errs.Domain(op, "cannot slice along %s", axis)
	}

	var pts []geometrics.Point2D
	for _, v := range along {
		x, y := at(v)
		z, err := s.lookup(x, y)
		if errors.Is(err, errs.ErrOutOfDomain) {
			continue
		}
		if err != nil {
			return nil, err
		}
		pts = append(pts, geometrics.Point2D{X: v, Y: z})
	}
	if len(pts) == 0 {
		return nil, errs.OutOfDomain(op, "%s=%s does not cross the surface", axis, value)
	}
	return curves.FromPoints(pts)
}

func (s *Surface) RestrictDomain(xr, yr geometrics.Range) (*Surface, error) {
	if xr.Max.LessThan(xr.Min) || yr.Max.LessThan(yr.Min) {
		return nil, errs.Domain("surfaces.RestrictDomain", "empty range")
	}
	var pts []geometrics.Point3D
	for _, p := range s.points {
		if xr.Contains(p.X) && yr.Contains(p.Y) {
			pts = append(pts, p)
		}
	}
	return &Surface{points: pts}, nil
}

// Decimate keeps every n-th distinct x and y coordinate, plus the last of
// each, so the thinned surface spans the same ranges.
func (s *Surface) Decimate(n int) (*Surface, error) {
	if n < 1 {
		return nil, errs.Domain("surfaces.Decimate", "step must be positive, got %d", n)
	}
	keepX := everyNth(s.XValues(), n)
	keepY := everyNth(s.YValues(), n)
	var pts []geometrics.Point3D
	for _, p := range s.points {
		_, okx := keepX[p.X.String()]
		_, oky := keepY[p.Y.String()]
		if okx && oky {
			pts = append(pts, p)
		}
	}
	return &Surface{points: pts}, nil
}

func everyNth(vs []decimal.Decimal, n int) map[string]struct{} {
	keep := make(map[string]struct{})
	for i := 0; i < len(vs); i += n {
		keep[vs[i].String()] = struct{}{}
	}
	if len(vs) > 0 {
		keep[vs[len(vs)-1].String()] = struct{}{}
	}
	return keep
}
