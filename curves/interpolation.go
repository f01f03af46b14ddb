package curves

import (
	"math"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/interp"
)

// Interpolate evaluates the curve at x. Grid points return their stored
// value exactly; x outside XRange is OutOfDomain. Bilinear needs a second
// curve, see BilinearBetween.
func (c *Curve) Interpolate(x decimal.Decimal, kind geometrics.InterpolationType) (geometrics.Point2D, error) {
	switch kind {
	case geometrics.Linear:
		return c.Linear(x)
	case geometrics.Cubic:
		return c.Cubic(x)
	case geometrics.Spline:
		return c.Spline(x)
	}
	return geometrics.Point2D{}, errs.Domain("curves.Interpolate", "%s interpolation is not defined on a single curve", kind)
}

// locate validates x against the curve and reports an exact grid hit.
func (c *Curve) locate(op string, x decimal.Decimal, minPoints int) (int, bool, error) {
	if len(c.points) < minPoints {
		return 0, false, errs.InsufficientData(op, "need at least %d points, got %d", minPoints, len(c.points))
	}
	if !c.XRange().Contains(x) {
		return 0, false, errs.OutOfDomain(op, "x=%s outside [%s, %s]", x, c.points[0].X, c.points[len(c.points)-1].X)
	}
	i := c.search(x)
	return i, c.points[i].X.Equal(x), nil
}

// Linear interpolates between the bracketing points in decimal arithmetic.
func (c *Curve) Linear(x decimal.Decimal) (geometrics.Point2D, error) {
	i, hit, err := c.locate("curves.Linear", x, 2)
	if err != nil {
		return geometrics.Point2D{}, err
	}
	if hit {
		return c.points[i], nil
	}
	lo, hi := c.points[i-1], c.points[i]
	return geometrics.Point2D{X: x, Y: geometrics.Lerp(lo.X, lo.Y, hi.X, hi.Y, x)}, nil
}

// Cubic uses a monotone piecewise cubic Hermite (Fritsch-Butland) fit, so
// monotone data never overshoots between samples.
func (c *Curve) Cubic(x decimal.Decimal) (geometrics.Point2D, error) {
	i, hit, err := c.locate("curves.Cubic", x, 3)
	if err != nil {
		return geometrics.Point2D{}, err
	}
	if hit {
		return c.points[i], nil
	}
	var fb interp.FritschButland
	if err := fb.Fit(c.xs(), c.ys()); err != nil {
		return geometrics.Point2D{}, errs.Numeric("curves.Cubic", "fit: %v", err)
	}
	return c.predicted("curves.Cubic", x, fb.Predict(x.InexactFloat64()))
}

// Spline uses a natural cubic spline (zero second derivative at both ends).
func (c *Curve) Spline(x decimal.Decimal) (geometrics.Point2D, error) {
	i, hit, err := c.locate("curves.Spline", x, 3)
	if err != nil {
		return geometrics.Point2D{}, err
	}
	if hit {
		return c.points[i], nil
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(c.xs(), c.ys()); err != nil {
		return geometrics.Point2D{}, errs.Numeric("curves.Spline", "tridiagonal solve: %v", err)
	}
	return c.predicted("curves.Spline", x, nc.Predict(x.InexactFloat64()))
}

func (c *Curve) predicted(op string, x decimal.Decimal, y float64) (geometrics.Point2D, error) {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return geometrics.Point2D{}, errs.Numeric(op, "non-finite value at x=%s", x)
	}
	return geometrics.Point2D{X: x, Y: decimal.NewFromFloat(y)}, nil
}

// BilinearBetween treats lower and upper as the rows y = y0 and y = y1 of a
// grid and evaluates the four-corner interpolation at (x, y).
func BilinearBetween(lower, upper *Curve, y0, y1, x, y decimal.Decimal) (decimal.Decimal, error) {
	if !y1.GreaterThan(y0) {
		return decimal.Zero, errs.DegenerateGrid("curves.BilinearBetween", "row ordinates %s and %s are not increasing", y0, y1)
	}
	if y.LessThan(y0) || y.GreaterThan(y1) {
		return decimal.Zero, errs.OutOfDomain("curves.BilinearBetween", "y=%s outside [%s, %s]", y, y0, y1)
	}
	a, err := lower.Linear(x)
	if err != nil {
		return decimal.Zero, err
	}
	b, err := upper.Linear(x)
	if err != nil {
		return decimal.Zero, err
	}
	return geometrics.Lerp(y0, a.Y, y1, b.Y, y), nil
}
