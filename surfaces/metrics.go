package surfaces

import "github.com/bcdannyboy/optionlab/geometrics"

// series views the surface as (x, z) samples in row-major order; statistics
// read z, trends regress z on x.
func (s *Surface) series() []geometrics.Point2D {
	out := make([]geometrics.Point2D, len(s.points))
	for i, p := range s.points {
		out[i] = geometrics.Point2D{X: p.X, Y: p.Z}
	}
	return out
}

func (s *Surface) BasicMetrics() (geometrics.BasicMetrics, error) {
	return geometrics.ComputeBasic("surfaces.BasicMetrics", s.series())
}

func (s *Surface) ShapeMetrics() (geometrics.ShapeMetrics, error) {
	return geometrics.ComputeShape("surfaces.ShapeMetrics", s.series())
}

func (s *Surface) RangeMetrics() (geometrics.RangeMetrics, error) {
	return geometrics.ComputeRange("surfaces.RangeMetrics", s.series())
}

func (s *Surface) TrendMetrics() (geometrics.TrendMetrics, error) {
	return geometrics.ComputeTrend("surfaces.TrendMetrics", s.series())
}

func (s *Surface) RiskMetrics() (geometrics.RiskMetrics, error) {
	return geometrics.ComputeRisk("surfaces.RiskMetrics", s.series())
}

func (s *Surface) Metrics() (geometrics.Metrics, error) {
	return geometrics.Compute("surfaces.Metrics", s.series())
}
