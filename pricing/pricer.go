package pricing

import (
	"sync/atomic"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/shopspring/decimal"
)

// Source tags how a pricer produces its Greeks.
type Source int

const (
	ClosedForm Source = iota
	Tree
	Simulation
)

func (s Source) String() string {
	switch s {
	case Tree:
		return "tree"
	case Simulation:
		return "simulation"
	}
	return "closed-form"
}

// Pricer prices one option model. Implementations are stateless and safe for
// concurrent use.
type Pricer interface {
	Source() Source
	Price(opt options.Option) (decimal.Decimal, error)
	Greeks(opt options.Option) (Greeks, error)
}

type settings struct {
	treeSteps int
	bumps     Bumps
}

var active atomic.Pointer[settings]

func init() {
	active.Store(&settings{treeSteps: DefaultTreeSteps, bumps: DefaultBumps})
}

// Configure replaces the lattice depth and closed-form bumps used by For.
// The CLI calls it once from its configuration.
func Configure(treeSteps int, bumps Bumps) error {
	if treeSteps < 2 {
		return errs.Domain("pricing.Configure", "tree needs at least 2 steps, got %d", treeSteps)
	}
	if !(bumps.Spot > 0 && bumps.Vol > 0 && bumps.Time > 0 && bumps.Rate > 0) {
		return errs.Domain("pricing.Configure", "bumps must be positive: %+v", bumps)
	}
	active.Store(&settings{treeSteps: treeSteps, bumps: bumps})
	return nil
}

// For picks the pricer matching the option's type.
func For(opt options.Option) (Pricer, error) {
	cur := active.Load()
	switch opt.Type {
	case options.European:
		return BlackScholesPricer{Bumps: cur.bumps}, nil
	case options.American:
		return TreePricer{Steps: cur.treeSteps, Bumps: TreeBumps}, nil
	case options.Binary:
		return BinaryPricer{Bumps: TreeBumps}, nil
	case options.Asian:
		return AsianPricer{Bumps: TreeBumps}, nil
	}
	return nil, errs.Domain("pricing.For", "no pricer for option type %v", opt.Type)
}

// Price is the per-unit model price of opt.
func Price(opt options.Option) (decimal.Decimal, error) {
	p, err := For(opt)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Price(opt)
}

// CalculateGreeks returns the position Greeks of opt, scaled by quantity and side.
func CalculateGreeks(opt options.Option) (Greeks, error) {
	p, err := For(opt)
	if err != nil {
		return Greeks{}, err
	}
	return p.Greeks(opt)
}

// BlackScholesPricer is the closed-form European pricer.
type BlackScholesPricer struct {
	Bumps Bumps
}

func (BlackScholesPricer) Source() Source { return ClosedForm }

func (BlackScholesPricer) Price(opt options.Option) (decimal.Decimal, error) {
	return BlackScholes(opt)
}

func (bp BlackScholesPricer) Greeks(opt options.Option) (Greeks, error) {
	in, err := inputsFrom(opt)
	if err != nil {
		return Greeks{}, err
	}
	return bsmGreeks(in, bp.Bumps).toDecimal("pricing.BlackScholesPricer", positionScale(opt))
}

// TreePricer values options on a CRR lattice. It honours early exercise for
// American options.
type TreePricer struct {
	Steps int
	Bumps Bumps
}

func (TreePricer) Source() Source { return Tree }

func (tp TreePricer) priceFunc(american bool) priceFunc {
	return func(in inputs) (float64, error) {
		out, err := crr(in, tp.Steps, american)
		return out.price, err
	}
}

func (tp TreePricer) Price(opt options.Option) (decimal.Decimal, error) {
	res, err := Binomial(opt, tp.Steps)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Price, nil
}

func (tp TreePricer) Greeks(opt options.Option) (Greeks, error) {
	in, err := inputsFrom(opt)
	if err != nil {
		return Greeks{}, err
	}
	g, err := finiteDifferenceGreeks(tp.priceFunc(opt.Type == options.American), in, tp.Bumps)
	if err != nil {
		return Greeks{}, err
	}
	return g.toDecimal("pricing.TreePricer", positionScale(opt))
}
