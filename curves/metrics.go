package curves

import "github.com/bcdannyboy/optionlab/geometrics"

// Metric methods summarise the y values; extrema and trends follow x order.

func (c *Curve) BasicMetrics() (geometrics.BasicMetrics, error) {
	return geometrics.ComputeBasic("curves.BasicMetrics", c.points)
}

func (c *Curve) ShapeMetrics() (geometrics.ShapeMetrics, error) {
	return geometrics.ComputeShape("curves.ShapeMetrics", c.points)
}

func (c *Curve) RangeMetrics() (geometrics.RangeMetrics, error) {
	return geometrics.ComputeRange("curves.RangeMetrics", c.points)
}

func (c *Curve) TrendMetrics() (geometrics.TrendMetrics, error) {
	return geometrics.ComputeTrend("curves.TrendMetrics", c.points)
}

func (c *Curve) RiskMetrics() (geometrics.RiskMetrics, error) {
	return geometrics.ComputeRisk("curves.RiskMetrics", c.points)
}

func (c *Curve) Metrics() (geometrics.Metrics, error) {
	return geometrics.Compute("curves.Metrics", c.points)
}
