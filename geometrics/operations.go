package geometrics

import (
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/shopspring/decimal"
)

type MergeOperation int

const (
	Add MergeOperation = iota
	Subtract
	Multiply
	Divide
	Max
	Min
)

func (op MergeOperation) String() string {
	switch op {
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	case Max:
		return "max"
	case Min:
		return "min"
	}
	return "unknown"
}

// Commutative reports whether the operands of op may be swapped.
func (op MergeOperation) Commutative() bool {
	return op == Add || op == Multiply || op == Max || op == Min
}

// Apply combines a and b. Divide by zero is an ArithmeticError.
func (op MergeOperation) Apply(a, b decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case Add:
		return a.Add(b), nil
	case Subtract:
		return a.Sub(b), nil
	case Multiply:
		return a.Mul(b), nil
	case Divide:
		if b.IsZero() {
			return decimal.Zero, errs.Arithmetic("geometrics.Merge", "division by zero")
		}
		return a.Div(b), nil
	case Max:
		return decimal.Max(a, b), nil
	case Min:
		return decimal.Min(a, b), nil
	}
	return decimal.Zero, errs.Domain("geometrics.Merge", "unknown merge operation %d", int(op))
}

// Fold applies op left to right over values.
func (op MergeOperation) Fold(values []decimal.Decimal) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Zero, errs.Domain("geometrics.Merge", "nothing to fold")
	}
	acc := values[0]
	for _, v := range values[1:] {
		var err error
		if acc, err = op.Apply(acc, v); err != nil {
			return decimal.Zero, err
		}
	}
	return acc, nil
}

type InterpolationType int

const (
	Linear InterpolationType = iota
	Bilinear
	Cubic
	Spline
	Trilinear
)

func (t InterpolationType) String() string {
	switch t {
	case Linear:
		return "linear"
	case Bilinear:
		return "bilinear"
	case Cubic:
		return "cubic"
	case Spline:
		return "spline"
	case Trilinear:
		return "trilinear"
	}
	return "unknown"
}

// Axis names a coordinate of a point.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "unknown"
}

// Lerp interpolates between (x0, y0) and (x1, y1) at x.
func Lerp(x0, y0, x1, y1, x decimal.Decimal) decimal.Decimal {
	if x1.Equal(x0) {
		return y0
	}
	w := x.Sub(x0).Div(x1.Sub(x0))
	return y0.Add(y1.Sub(y0).Mul(w))
}
