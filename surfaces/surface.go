// Package surfaces implements ordered 3D point sets z = f(x, y) with the same
// construction, interpolation, merge and metric contract as curves.
package surfaces

import (
	"context"
	"sort"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/shopspring/decimal"
)

type ConstructionMethod interface {
	build(ctx context.Context) ([]geometrics.Point3D, error)
}

type FromData struct {
	Points []geometrics.Point3D
}

func (m FromData) build(context.Context) ([]geometrics.Point3D, error) {
	return m.Points, nil
}

// Func maps a grid node to a point. Samples run concurrently, so it must not
// touch shared mutable state.
type Func func(x, y decimal.Decimal) (geometrics.Point3D, error)

// Parametric samples F row-major over the Params grid.
type Parametric struct {
	F      Func
	Params geometrics.Params3D
}

func (m Parametric) build(ctx context.Context) ([]geometrics.Point3D, error) {
	if m.F == nil {
		return nil, errs.Domain("surfaces.New", "parametric surface without a function")
	}
	xs, ys, err := m.Params.Grid("surfaces.New")
	if err != nil {
		return nil, err
	}
	return geometrics.Evaluate(ctx, len(xs)*len(ys), func(k int) (geometrics.Point3D, error) {
		return m.F(xs[k/len(ys)], ys[k%len(ys)])
	})
}

// Surface is an immutable point set ordered by (x, y) with no repeated node.
type Surface struct {
	points []geometrics.Point3D
}

func New(method ConstructionMethod) (*Surface, error) {
	return NewContext(context.Background(), method)
}

func NewContext(ctx context.Context, method ConstructionMethod) (*Surface, error) {
	if method == nil {
		return nil, errs.Domain("surfaces.New", "nil construction method")
	}
	defer logger.LogDuration(ctx, "surface constructed")()
	pts, err := method.build(ctx)
	if err != nil {
		return nil, err
	}
	return FromPoints(pts)
}

func FromPoints(points []geometrics.Point3D) (*Surface, error) {
	pts, err := geometrics.Canonical3D("surfaces.FromPoints", points)
	if err != nil {
		return nil, err
	}
	return &Surface{points: pts}, nil
}

func (s *Surface) Points() []geometrics.Point3D {
	out := make([]geometrics.Point3D, len(s.points))
	copy(out, s.points)
	return out
}

func (s *Surface) Len() int { return len(s.points) }

func (s *Surface) IsEmpty() bool { return len(s.points) == 0 }

func (s *Surface) XRange() geometrics.Range {
	if s.IsEmpty() {
		return geometrics.Range{}
	}
	return geometrics.Range{Min: s.points[0].X, Max: s.points[len(s.points)-1].X}
}

func (s *Surface) YRange() geometrics.Range {
	return s.axisRange(func(p geometrics.Point3D) decimal.Decimal { return p.Y })
}

func (s *Surface) ZRange() geometrics.Range {
	return s.axisRange(func(p geometrics.Point3D) decimal.Decimal { return p.Z })
}

func (s *Surface) axisRange(get func(geometrics.Point3D) decimal.Decimal) geometrics.Range {
	if s.IsEmpty() {
		return geometrics.Range{}
	}
	r := geometrics.Range{Min: get(s.points[0]), Max: get(s.points[0])}
	for _, p := range s.points[1:] {
		r.Min = decimal.Min(r.Min, get(p))
		r.Max = decimal.Max(r.Max, get(p))
	}
	return r
}

// XValues returns the distinct x coordinates in order.
func (s *Surface) XValues() []decimal.Decimal {
	xs := make([]decimal.Decimal, len(s.points))
	for i, p := range s.points {
		xs[i] = p.X
	}
	return geometrics.UniqueSorted(xs)
}

// YValues returns the distinct y coordinates in order.
func (s *Surface) YValues() []decimal.Decimal {
	ys := make([]decimal.Decimal, len(s.points))
	for i, p := range s.points {
		ys[i] = p.Y
	}
	return geometrics.UniqueSorted(ys)
}

// column returns the points with the given x, ordered by y.
func (s *Surface) column(x decimal.Decimal) []geometrics.Point3D {
	lo := sort.Search(len(s.points), func(i int) bool { return s.points[i].X.GreaterThanOrEqual(x) })
	hi := lo
	for hi < len(s.points) && s.points[hi].X.Equal(x) {
		hi++
	}
	return s.points[lo:hi]
}

func (s *Surface) find(x, y decimal.Decimal) (geometrics.Point3D, bool) {
	target := geometrics.Point3D{X: x, Y: y}
	i := sort.Search(len(s.points), func(i int) bool { return geometrics.Compare3D(s.points[i], target) >= 0 })
	if i < len(s.points) && geometrics.Compare3D(s.points[i], target) == 0 {
		return s.points[i], true
	}
	return geometrics.Point3D{}, false
}
