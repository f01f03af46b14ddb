package visualization

import (
	"github.com/bcdannyboy/optionlab/curves"
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/surfaces"
	"github.com/shopspring/decimal"
)

func FromCurve(c *curves.Curve, name string, mode TraceMode) Series2D {
	points := c.Points()
	s := Series2D{
		X:    make([]decimal.Decimal, len(points)),
		Y:    make([]decimal.Decimal, len(points)),
		Name: name,
		Mode: mode,
	}
	for i, p := range points {
		s.X[i] = p.X
		s.Y[i] = p.Y
	}
	return s
}

// FromCurves pairs each curve with the name at the same index; missing
// names stay empty.
func FromCurves(cs []*curves.Curve, names []string, mode TraceMode) MultiSeries2D {
	m := MultiSeries2D{Series: make([]Series2D, len(cs))}
	for i, c := range cs {
		var name string
		if i < len(names) {
			name = names[i]
		}
		m.Series[i] = FromCurve(c, name, mode)
	}
	return m
}

// FromSurface lays the surface out on the grid of its distinct x and y
// values. Nodes without a sample are filled by bilinear interpolation, or
// with the nearest sample when they fall outside every column.
func FromSurface(s *surfaces.Surface, labels ...string) (Surface3D, error) {
	if s.IsEmpty() {
		return Surface3D{}, errs.InsufficientData("visualization.FromSurface", "empty surface")
	}
	xs, ys := s.XValues(), s.YValues()
	out := Surface3D{
		X:      make([][]decimal.Decimal, len(ys)),
		Y:      make([][]decimal.Decimal, len(ys)),
		Z:      make([][]decimal.Decimal, len(ys)),
		Labels: labels,
	}
	for i, y := range ys {
		out.X[i] = make([]decimal.Decimal, len(xs))
		out.Y[i] = make([]decimal.Decimal, len(xs))
		out.Z[i] = make([]decimal.Decimal, len(xs))
		for j, x := range xs {
			z, err := nodeValue(s, x, y)
			if err != nil {
				return Surface3D{}, err
			}
			out.X[i][j], out.Y[i][j], out.Z[i][j] = x, y, z
		}
	}
	return out, nil
}

func nodeValue(s *surfaces.Surface, x, y decimal.Decimal) (decimal.Decimal, error) {
	if zs := s.Values(x, y); len(zs) > 0 {
		return zs[0], nil
	}
	if p, err := s.Bilinear(x, y); err == nil {
		return p.Z, nil
	}
	p, err := s.ClosestPoint(x, y)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Z, nil
}
