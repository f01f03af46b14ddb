// Package curves implements ordered 2D point sets: construction from data or
// from a parametric function, interpolation, pointwise merges, axis
// operations and summary metrics.
package curves

import (
	"context"
	"sort"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/shopspring/decimal"
)

// ConstructionMethod is either FromData or Parametric.
type ConstructionMethod interface {
	build(ctx context.Context) ([]geometrics.Point2D, error)
}

// FromData ingests an existing point set.
type FromData struct {
	Points []geometrics.Point2D
}

func (m FromData) build(context.Context) ([]geometrics.Point2D, error) {
	return m.Points, nil
}

// Func maps a grid parameter to a point. It must be pure: samples are
// evaluated concurrently and in no particular order.
type Func func(t decimal.Decimal) (geometrics.Point2D, error)

// Parametric samples F over the grid described by Params.
type Parametric struct {
	F      Func
	Params geometrics.Params2D
}

func (m Parametric) build(ctx context.Context) ([]geometrics.Point2D, error) {
	if m.F == nil {
		return nil, errs.Domain("curves.New", "parametric curve without a function")
	}
	ts, err := m.Params.Grid("curves.New")
	if err != nil {
		return nil, err
	}
	return geometrics.Evaluate(ctx, len(ts), func(i int) (geometrics.Point2D, error) {
		return m.F(ts[i])
	})
}

// Curve is an immutable set of points with strictly increasing x.
type Curve struct {
	points []geometrics.Point2D
}

func New(method ConstructionMethod) (*Curve, error) {
	return NewContext(context.Background(), method)
}

// NewContext builds a curve, stopping parametric evaluation early when ctx
// is cancelled.
func NewContext(ctx context.Context, method ConstructionMethod) (*Curve, error) {
	if method == nil {
		return nil, errs.Domain("curves.New", "nil construction method")
	}
	defer logger.LogDuration(ctx, "curve constructed")()
	pts, err := method.build(ctx)
	if err != nil {
		return nil, err
	}
	return FromPoints(pts)
}

// FromPoints sorts a copy of points by x; duplicate x values are a
// DegenerateGridError.
func FromPoints(points []geometrics.Point2D) (*Curve, error) {
	pts, err := geometrics.Canonical2D("curves.FromPoints", points)
	if err != nil {
		return nil, err
	}
	return &Curve{points: pts}, nil
}

// Points returns a copy of the point set in x order.
func (c *Curve) Points() []geometrics.Point2D {
	out := make([]geometrics.Point2D, len(c.points))
	copy(out, c.points)
	return out
}

func (c *Curve) Len() int { return len(c.points) }

func (c *Curve) IsEmpty() bool { return len(c.points) == 0 }

// XRange returns the first and last abscissae. An empty curve has a zero range.
func (c *Curve) XRange() geometrics.Range {
	if c.IsEmpty() {
		return geometrics.Range{}
	}
	return geometrics.Range{Min: c.points[0].X, Max: c.points[len(c.points)-1].X}
}

// YRange returns the smallest and largest ordinates.
func (c *Curve) YRange() geometrics.Range {
	if c.IsEmpty() {
		return geometrics.Range{}
	}
	r := geometrics.Range{Min: c.points[0].Y, Max: c.points[0].Y}
	for _, p := range c.points[1:] {
		r.Min = decimal.Min(r.Min, p.Y)
		r.Max = decimal.Max(r.Max, p.Y)
	}
	return r
}

// search returns the index of the first point with X >= x.
func (c *Curve) search(x decimal.Decimal) int {
	return sort.Search(len(c.points), func(i int) bool { return c.points[i].X.GreaterThanOrEqual(x) })
}

func (c *Curve) xs() []float64 {
	out := make([]float64, len(c.points))
	for i, p := range c.points {
		out[i] = p.X.InexactFloat64()
	}
	return out
}

func (c *Curve) ys() []float64 {
	out := make([]float64, len(c.points))
	for i, p := range c.points {
		out[i] = p.Y.InexactFloat64()
	}
	return out
}
