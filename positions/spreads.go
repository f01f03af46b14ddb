package positions

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/bcdannyboy/optionlab/chains"
	"github.com/bcdannyboy/optionlab/curves"
	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/bcdannyboy/optionlab/options"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/shopspring/decimal"
)

const (
	jobBatchSize    = 1000
	resultBatchSize = 1000
)

// VerticalSpread is a short and a long option of the same style, expiry and
// quantity at different strikes.
type VerticalSpread struct {
	Short *Position
	Long  *Position
}

func NewVerticalSpread(short, long *Position) (*VerticalSpread, error) {
	const op = "positions.NewVerticalSpread"
	if short == nil || long == nil {
		return nil, errs.Domain(op, "missing leg")
	}
	if short.Option.Side != options.Short || long.Option.Side != options.Long {
		return nil, errs.Domain(op, "legs must be one short and one long")
	}
	if short.Option.Style != long.Option.Style {
		return nil, errs.Domain(op, "legs mix %s and %s", short.Option.Style, long.Option.Style)
	}
	if short.Option.Strike.Equal(long.Option.Strike) {
		return nil, errs.Domain(op, "legs share strike %s", short.Option.Strike)
	}
	if !short.Option.Quantity.Equal(long.Option.Quantity) {
		return nil, errs.Domain(op, "leg quantities %s and %s differ", short.Option.Quantity, long.Option.Quantity)
	}
	if !short.Option.DaysToExpiry().Equal(long.Option.DaysToExpiry()) {
		return nil, errs.Domain(op, "legs expire on different days")
	}
	return &VerticalSpread{Short: short, Long: long}, nil
}

func (s *VerticalSpread) Kind() SpreadKind {
	shortAbove := s.Short.Option.Strike.GreaterThan(s.Long.Option.Strike)
	if s.Short.Option.Style == options.Put {
		if shortAbove {
			return BullPut
		}
		return BearPut
	}
	if shortAbove {
		return BullCall
	}
	return BearCall
}

// Credit is the net premium of both legs after fees; negative for debit spreads.
func (s *VerticalSpread) Credit() decimal.Decimal {
	return s.Short.NetPremium().Add(s.Long.NetPremium())
}

func (s *VerticalSpread) Width() positive.Positive {
	return absDecimal(s.Short.Option.Strike, s.Long.Option.Strike)
}

// Contract is the short leg, the one whose assignment drives the spread.
func (s *VerticalSpread) Contract() options.Option { return s.Short.Option }

func (s *VerticalSpread) PnLAtExpiry(spot positive.Positive) decimal.Decimal {
	return s.Short.PnLAtExpiry(spot).Add(s.Long.PnLAtExpiry(spot))
}

func (s *VerticalSpread) strikes() (positive.Positive, positive.Positive) {
	return positive.Min(s.Short.Option.Strike, s.Long.Option.Strike), positive.Max(s.Short.Option.Strike, s.Long.Option.Strike)
}

// extremes evaluates the P&L at both strikes; the payoff is flat outside them
// and linear between.
func (s *VerticalSpread) extremes() (decimal.Decimal, decimal.Decimal) {
	lo, hi := s.strikes()
	return s.PnLAtExpiry(lo), s.PnLAtExpiry(hi)
}

func (s *VerticalSpread) MaxProfit() decimal.Decimal {
	a, b := s.extremes()
	return decimal.Max(a, b)
}

// MaxLoss is a non-negative magnitude.
func (s *VerticalSpread) MaxLoss() decimal.Decimal {
	a, b := s.extremes()
	return decimal.Max(decimal.Min(a, b).Neg(), decimal.Zero)
}

// BreakEven is the settlement price between the strikes with zero P&L.
func (s *VerticalSpread) BreakEven() (positive.Positive, bool) {
	lo, hi := s.strikes()
	a, b := s.extremes()
	if a.Sign()*b.Sign() > 0 || a.Equal(b) {
		return positive.ZERO, false
	}
	x := lo.Decimal().Add(a.Neg().Mul(hi.SubDecimal(lo.Decimal())).Div(b.Sub(a)))
	return positive.MustNew(x), true
}

// ProfitCurve samples PnLAtExpiry over steps settlement prices in [from, to].
func (s *VerticalSpread) ProfitCurve(from, to positive.Positive, steps int) (*curves.Curve, error) {
	return s.ProfitCurveContext(context.Background(), from, to, steps)
}

func (s *VerticalSpread) ProfitCurveContext(ctx context.Context, from, to positive.Positive, steps int) (*curves.Curve, error) {
	return profitCurve(ctx, s.PnLAtExpiry, from, to, steps)
}

// ReturnOnRisk is MaxProfit / MaxLoss.
func (s *VerticalSpread) ReturnOnRisk() (decimal.Decimal, error) {
	risk := s.MaxLoss()
	if risk.IsZero() {
		return decimal.Zero, errs.Arithmetic("positions.ReturnOnRisk", "spread carries no risk")
	}
	return s.MaxProfit().Div(risk), nil
}

type job struct {
	short positive.Positive
	long  positive.Positive
}

type result struct {
	spread *VerticalSpread
	ror    decimal.Decimal
	err    error
}

// PairCount is the number of candidates a scan of chain evaluates.
func PairCount(chain *chains.OptionChain) int {
	n := chain.Len()
	return n * (n - 1) / 2
}

func generateJobs(strikes []positive.Positive, kind SpreadKind) []job {
	jobs := make([]job, 0, len(strikes)*(len(strikes)-1)/2)
	for i := 0; i < len(strikes)-1; i++ {
		for j := i + 1; j < len(strikes); j++ {
			if kind == BullPut {
				jobs = append(jobs, job{short: strikes[j], long: strikes[i]})
			} else {
				jobs = append(jobs, job{short: strikes[i], long: strikes[j]})
			}
		}
	}
	return jobs
}

// FindCreditSpreads scans chain for kind spreads of one contract whose return
// on risk reaches minReturnOnRisk.
func FindCreditSpreads(chain *chains.OptionChain, kind SpreadKind, minReturnOnRisk decimal.Decimal) ([]*VerticalSpread, error) {
	return FindCreditSpreadsContext(context.Background(), chain, kind, ScanConfig{MinReturnOnRisk: minReturnOnRisk})
}

// FindCreditSpreadsContext sells the bid of the short strike and buys the ask
// of the long strike for every strike pair, on a pool of workers. Pairs with
// a missing quote or volatility, or without a net credit, are skipped.
// Results are ordered by return on risk, best first.
func FindCreditSpreadsContext(ctx context.Context, chain *chains.OptionChain, kind SpreadKind, cfg ScanConfig) ([]*VerticalSpread, error) {
	if chain == nil {
		return nil, errs.Domain("positions.FindCreditSpreads", "nil chain")
	}
	if !kind.IsCredit() {
		return nil, errs.Domain("positions.FindCreditSpreads", "%s is not a credit spread", kind)
	}
	if cfg.Quantity.IsZero() {
		cfg.Quantity = positive.ONE
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := generateJobs(chain.Strikes(), kind)
	defer logger.LogDuration(ctx, "scanned credit spreads", "symbol", chain.Symbol, "kind", kind.String(), "candidates", len(jobs))()

	found, err := processJobs(ctx, chain, kind, cfg, jobs, workers)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(found, func(i, j int) bool {
		if c := found[i].ror.Cmp(found[j].ror); c != 0 {
			return c > 0
		}
		if c := found[i].spread.Short.Option.Strike.Cmp(found[j].spread.Short.Option.Strike); c != 0 {
			return c < 0
		}
		return found[i].spread.Long.Option.Strike.LessThan(found[j].spread.Long.Option.Strike)
	})
	out := make([]*VerticalSpread, len(found))
	for i, r := range found {
		out[i] = r.spread
	}
	return out, nil
}

func processJobs(ctx context.Context, chain *chains.OptionChain, kind SpreadKind, cfg ScanConfig, jobs []job, numWorkers int) ([]result, error) {
	var wg sync.WaitGroup
	jobChan := make(chan job, jobBatchSize)
	resultChan := make(chan result, resultBatchSize)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go worker(chain, kind, cfg, jobChan, resultChan, &wg)
	}

	go func() {
		defer close(jobChan)
		for _, j := range jobs {
			select {
			case jobChan <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var (
		found    []result
		firstErr error
	)
	for r := range resultChan {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		found = append(found, r)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

func worker(chain *chains.OptionChain, kind SpreadKind, cfg ScanConfig, jobs <-chan job, results chan<- result, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		spread, ror, ok, err := evaluate(chain, kind, cfg, j)
		switch {
		case err != nil:
			results <- result{err: err}
		case ok && ror.GreaterThanOrEqual(cfg.MinReturnOnRisk):
			results <- result{spread: spread, ror: ror}
		}
		if cfg.Progress != nil {
			cfg.Progress.Increment()
		}
	}
}

func style(kind SpreadKind) options.OptionStyle {
	if kind == BullPut || kind == BearPut {
		return options.Put
	}
	return options.Call
}

// quotes returns the short leg's bid and the long leg's ask.
func quotes(chain *chains.OptionChain, st options.OptionStyle, j job) (positive.Positive, positive.Positive, bool) {
	shortRow, ok1 := chain.Row(j.short)
	longRow, ok2 := chain.Row(j.long)
	if !ok1 || !ok2 {
		return positive.ZERO, positive.ZERO, false
	}
	bid, ask := shortRow.CallBid, longRow.CallAsk
	if st == options.Put {
		bid, ask = shortRow.PutBid, longRow.PutAsk
	}
	if !bid.Valid || !ask.Valid || bid.Decimal.IsNegative() || ask.Decimal.IsNegative() {
		return positive.ZERO, positive.ZERO, false
	}
	if _, ok := shortRow.Volatility(); !ok {
		return positive.ZERO, positive.ZERO, false
	}
	if _, ok := longRow.Volatility(); !ok {
		return positive.ZERO, positive.ZERO, false
	}
	return positive.MustNew(bid.Decimal), positive.MustNew(ask.Decimal), true
}

func evaluate(chain *chains.OptionChain, kind SpreadKind, cfg ScanConfig, j job) (*VerticalSpread, decimal.Decimal, bool, error) {
	st := style(kind)
	bid, ask, ok := quotes(chain, st, j)
	if !ok || bid.IsZero() || bid.LessThan(cfg.OpenFee.Add(cfg.CloseFee)) {
		return nil, decimal.Zero, false, nil
	}
	shortOpt, err := chain.OptionAt(j.short, st, options.Short)
	if err != nil {
		return nil, decimal.Zero, false, err
	}
	longOpt, err := chain.OptionAt(j.long, st, options.Long)
	if err != nil {
		return nil, decimal.Zero, false, err
	}
	short, err := New(shortOpt.WithQuantity(cfg.Quantity), bid, cfg.Now, cfg.OpenFee, cfg.CloseFee)
	if err != nil {
		return nil, decimal.Zero, false, err
	}
	long, err := New(longOpt.WithQuantity(cfg.Quantity), ask, cfg.Now, cfg.OpenFee, cfg.CloseFee)
	if err != nil {
		return nil, decimal.Zero, false, err
	}
	spread, err := NewVerticalSpread(short, long)
	if err != nil {
		return nil, decimal.Zero, false, err
	}
	if !spread.Credit().IsPositive() {
		return nil, decimal.Zero, false, nil
	}
	ror, err := spread.ReturnOnRisk()
	if errors.Is(err, errs.ErrArithmetic) {
		return nil, decimal.Zero, false, nil
	}
	if err != nil {
		return nil, decimal.Zero, false, err
	}
	return spread, ror, true, nil
}
