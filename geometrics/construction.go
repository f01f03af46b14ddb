package geometrics

import (
	"context"
	"runtime"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Params2D samples t over [TStart, TEnd] at Steps evenly spaced points,
// both ends included.
type Params2D struct {
	TStart decimal.Decimal
	TEnd   decimal.Decimal
	Steps  int
}

// Params3D samples a row-major XSteps × YSteps grid.
type Params3D struct {
	XStart decimal.Decimal
	XEnd   decimal.Decimal
	YStart decimal.Decimal
	YEnd   decimal.Decimal
	XSteps int
	YSteps int
}

// Linspace returns steps values start + i·(end−start)/(steps−1).
func Linspace(op string, start, end decimal.Decimal, steps int) ([]decimal.Decimal, error) {
	if steps <= 1 {
		return nil, errs.Domain(op, "need at least 2 steps, got %d", steps)
	}
	if end.LessThan(start) {
		return nil, errs.Domain(op, "end %s before start %s", end, start)
	}
	step := end.Sub(start).Div(decimal.NewFromInt(int64(steps - 1)))
	out := make([]decimal.Decimal, steps)
	for i := range out {
		out[i] = start.Add(step.Mul(decimal.NewFromInt(int64(i))))
	}
	// pin the last sample so rounding in step never overshoots the range
	out[steps-1] = end
	return out, nil
}

func (p Params2D) Grid(op string) ([]decimal.Decimal, error) {
	return Linspace(op, p.TStart, p.TEnd, p.Steps)
}

func (p Params3D) Grid(op string) ([]decimal.Decimal, []decimal.Decimal, error) {
	xs, err := Linspace(op, p.XStart, p.XEnd, p.XSteps)
	if err != nil {
		return nil, nil, err
	}
	ys, err := Linspace(op, p.YStart, p.YEnd, p.YSteps)
	if err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}

// Evaluate runs f for every index in [0, n) on a bounded worker pool. The
// result slice is filled by index, so its order never depends on scheduling.
// The first error cancels the remaining work and is returned.
func Evaluate[T any](ctx context.Context, n int, f func(i int) (T, error)) ([]T, error) {
	out := make([]T, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := f(i)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
