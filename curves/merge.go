package curves

import (
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/shopspring/decimal"
)

// Arithmetic combines curves pointwise.
type Arithmetic interface {
	MergeWith(other *Curve, op geometrics.MergeOperation) (*Curve, error)
	Add(other *Curve) (*Curve, error)
	Sub(other *Curve) (*Curve, error)
	Mul(other *Curve) (*Curve, error)
	Div(other *Curve) (*Curve, error)
}

var _ Arithmetic = (*Curve)(nil)

// Merge folds op over the curves, left to right. The result is sampled at
// every abscissa of every input that lies inside the common x range, with
// each input read by linear interpolation.
func Merge(cs []*Curve, op geometrics.MergeOperation) (*Curve, error) {
	if len(cs) == 0 {
		return nil, errs.Domain("curves.Merge", "no curves to merge")
	}
	for i, c := range cs {
		if c == nil || c.IsEmpty() {
			return nil, errs.Domain("curves.Merge", "curve %d is empty", i)
		}
	}
	if len(cs) == 1 {
		return &Curve{points: cs[0].Points()}, nil
	}

	common := cs[0].XRange()
	for _, c := range cs[1:] {
		var ok bool
		if common, ok = common.Intersect(c.XRange()); !ok {
			return nil, errs.OutOfDomain("curves.Merge", "curves do not overlap in x")
		}
	}

	xs := unionAbscissae(cs, common)
	points := make([]geometrics.Point2D, 0, len(xs))
	values := make([]decimal.Decimal, len(cs))
	for _, x := range xs {
		for i, c := range cs {
			p, err := c.lookup(x)
			if err != nil {
				return nil, err
			}
			values[i] = p
		}
		y, err := op.Fold(values)
		if err != nil {
			return nil, err
		}
		points = append(points, geometrics.Point2D{X: x, Y: y})
	}
	return &Curve{points: points}, nil
}

func unionAbscissae(cs []*Curve, within geometrics.Range) []decimal.Decimal {
	var xs []decimal.Decimal
	for _, c := range cs {
		for _, p := range c.points {
			if within.Contains(p.X) {
				xs = append(xs, p.X)
			}
		}
	}
	return geometrics.UniqueSorted(xs)
}

// lookup is Linear without the two-point minimum, so a single-point curve
// still answers at its own abscissa.
func (c *Curve) lookup(x decimal.Decimal) (decimal.Decimal, error) {
	if len(c.points) == 1 && c.points[0].X.Equal(x) {
		return c.points[0].Y, nil
	}
	p, err := c.Linear(x)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Y, nil
}

func (c *Curve) MergeWith(other *Curve, op geometrics.MergeOperation) (*Curve, error) {
	return Merge([]*Curve{c, other}, op)
}

func (c *Curve) Add(other *Curve) (*Curve, error) { return c.MergeWith(other, geometrics.Add) }

func (c *Curve) Sub(other *Curve) (*Curve, error) { return c.MergeWith(other, geometrics.Subtract) }

func (c *Curve) Mul(other *Curve) (*Curve, error) { return c.MergeWith(other, geometrics.Multiply) }

func (c *Curve) Div(other *Curve) (*Curve, error) { return c.MergeWith(other, geometrics.Divide) }
