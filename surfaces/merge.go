package surfaces

import (
	"errors"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/geometrics"
	"github.com/shopspring/decimal"
)

type Arithmetic interface {
	MergeWith(other *Surface, op geometrics.MergeOperation) (*Surface, error)
	Add(other *Surface) (*Surface, error)
	Sub(other *Surface) (*Surface, error)
	Mul(other *Surface) (*Surface, error)
	Div(other *Surface) (*Surface, error)
}

var _ Arithmetic = (*Surface)(nil)

// Merge folds op over the surfaces at every (x, y) node of any input that
// lies in the common x and y ranges. Nodes that some input cannot reach by
// bilinear interpolation are left out.
func Merge(ss []*Surface, op geometrics.MergeOperation) (*Surface, error) {
	if len(ss) == 0 {
		return nil, errs.Domain("surfaces.Merge", "no surfaces to merge")
	}
	for i, s := range ss {
		if s == nil || s.IsEmpty() {
			return nil, errs.Domain("surfaces.Merge", "surface %d is empty", i)
		}
	}
	if len(ss) == 1 {
		return &Surface{points: ss[0].Points()}, nil
	}

	xr, yr := ss[0].XRange(), ss[0].YRange()
	for _, s := range ss[1:] {
		var okx, oky bool
		xr, okx = xr.Intersect(s.XRange())
		yr, oky = yr.Intersect(s.YRange())
		if !okx || !oky {
			return nil, errs.OutOfDomain("surfaces.Merge", "surfaces do not overlap")
		}
	}

	nodes, err := unionNodes(ss, xr, yr)
	if err != nil {
		return nil, err
	}
	points := make([]geometrics.Point3D, 0, len(nodes))
	values := make([]decimal.Decimal, len(ss))
next:
	for _, n := range nodes {
		for i, s := range ss {
			p, err := s.lookup(n.X, n.Y)
			if errors.Is(err, errs.ErrOutOfDomain) {
				continue next
			}
			if err != nil {
				return nil, err
			}
			values[i] = p
		}
		z, err := op.Fold(values)
		if err != nil {
			return nil, err
		}
		points = append(points, geometrics.Point3D{X: n.X, Y: n.Y, Z: z})
	}
	if len(points) == 0 {
		return nil, errs.OutOfDomain("surfaces.Merge", "no node is covered by every surface")
	}
	return &Surface{points: points}, nil
}

func unionNodes(ss []*Surface, xr, yr geometrics.Range) ([]geometrics.Point3D, error) {
	var nodes []geometrics.Point3D
	seen := make(map[string]struct{})
	for _, s := range ss {
		for _, p := range s.points {
			if !xr.Contains(p.X) || !yr.Contains(p.Y) {
				continue
			}
			// keys normalise trailing zeros so 1.0 and 1 collapse
			key := p.X.String() + "|" + p.Y.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			nodes = append(nodes, geometrics.Point3D{X: p.X, Y: p.Y})
		}
	}
	return geometrics.Canonical3D("surfaces.Merge", nodes)
}

func (s *Surface) lookup(x, y decimal.Decimal) (decimal.Decimal, error) {
	if p, ok := s.find(x, y); ok {
		return p.Z, nil
	}
	p, err := s.Bilinear(x, y)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Z, nil
}

func (s *Surface) MergeWith(other *Surface, op geometrics.MergeOperation) (*Surface, error) {
	return Merge([]*Surface{s, other}, op)
}

func (s *Surface) Add(other *Surface) (*Surface, error) {
	return s.MergeWith(other, geometrics.Add)
}

func (s *Surface) Sub(other *Surface) (*Surface, error) {
	return s.MergeWith(other, geometrics.Subtract)
}

func (s *Surface) Mul(other *Surface) (*Surface, error) {
	return s.MergeWith(other, geometrics.Multiply)
}

func (s *Surface) Div(other *Surface) (*Surface, error) {
	return s.MergeWith(other, geometrics.Divide)
}
