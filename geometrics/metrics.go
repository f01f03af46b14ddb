package geometrics

import (
	"math"
	"sort"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/chobie/go-gaussian"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// MovingAverageWindows are the window lengths reported in TrendMetrics.
var MovingAverageWindows = []int{3, 5, 7}

// VaRConfidence is the one-sided confidence of the parametric VaR.
const VaRConfidence = 0.95

type BasicMetrics struct {
	Mean   decimal.Decimal `json:"mean"`
	Median decimal.Decimal `json:"median"`
	Mode   decimal.Decimal `json:"mode"`
	StdDev decimal.Decimal `json:"std_dev"`
}

type ShapeMetrics struct {
	Skewness         decimal.Decimal `json:"skewness"`
	Kurtosis         decimal.Decimal `json:"kurtosis"`
	Peaks            []Point2D       `json:"peaks"`
	Valleys          []Point2D       `json:"valleys"`
	InflectionPoints []Point2D       `json:"inflection_points"`
}

type RangeMetrics struct {
	Min   Point2D         `json:"min"`
	Max   Point2D         `json:"max"`
	Range decimal.Decimal `json:"range"`
	Q1    decimal.Decimal `json:"q1"`
	Q2    decimal.Decimal `json:"q2"`
	Q3    decimal.Decimal `json:"q3"`
	IQR   decimal.Decimal `json:"iqr"`
}

type TrendMetrics struct {
	Slope     decimal.Decimal `json:"slope"`
	Intercept decimal.Decimal `json:"intercept"`
	RSquared  decimal.Decimal `json:"r_squared"`
	// windows of MovingAverageWindows, concatenated in that order
	MovingAverage []Point2D `json:"moving_average"`
}

type RiskMetrics struct {
	Volatility        decimal.Decimal `json:"volatility"`
	ValueAtRisk       decimal.Decimal `json:"value_at_risk"`
	ExpectedShortfall decimal.Decimal `json:"expected_shortfall"`
	Beta              decimal.Decimal `json:"beta"`
	SharpeRatio       decimal.Decimal `json:"sharpe_ratio"`
}

type Metrics struct {
	Basic BasicMetrics `json:"basic"`
	Shape ShapeMetrics `json:"shape"`
	Range RangeMetrics `json:"range"`
	Trend TrendMetrics `json:"trend"`
	Risk  RiskMetrics  `json:"risk"`
}

// sample is the float view of an ordered point series. sorted holds the same
// values in ascending order; every order-free statistic reads from it so the
// result does not depend on how the points were supplied.
type sample struct {
	points []Point2D
	xs     []float64
	ys     []float64
	sorted []float64
}

func newSample(op string, points []Point2D) (*sample, error) {
	if len(points) < 2 {
		return nil, errs.InsufficientData(op, "need at least 2 points, got %d", len(points))
	}
	s := &sample{
		points: points,
		xs:     make([]float64, len(points)),
		ys:     make([]float64, len(points)),
	}
	for i, p := range points {
		s.xs[i] = p.X.InexactFloat64()
		s.ys[i] = p.Y.InexactFloat64()
	}
	s.sorted = append([]float64(nil), s.ys...)
	sort.Float64s(s.sorted)
	return s, nil
}

func dec(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func (s *sample) median() float64 {
	n := len(s.sorted)
	if n%2 == 0 {
		return (s.sorted[n/2-1] + s.sorted[n/2]) / 2
	}
	return s.sorted[n/2]
}

// ComputeBasic reports mean, median, mode (smallest of the most frequent
// values) and population standard deviation of the y values.
func ComputeBasic(op string, points []Point2D) (BasicMetrics, error) {
	s, err := newSample(op, points)
	if err != nil {
		return BasicMetrics{}, err
	}
	mean, std := stat.PopMeanStdDev(s.sorted, nil)
	mode, _ := stat.Mode(s.sorted, nil)
	return BasicMetrics{
		Mean:   dec(mean),
		Median: dec(s.median()),
		Mode:   dec(mode),
		StdDev: dec(std),
	}, nil
}

// ComputeShape reports sample skewness and excess kurtosis, plus the local
// extrema and curvature sign changes along the point order.
func ComputeShape(op string, points []Point2D) (ShapeMetrics, error) {
	s, err := newSample(op, points)
	if err != nil {
		return ShapeMetrics{}, err
	}
	var m ShapeMetrics
	if _, std := stat.PopMeanStdDev(s.sorted, nil); std > 0 {
		m.Skewness = dec(stat.Skew(s.sorted, nil))
		m.Kurtosis = dec(stat.ExKurtosis(s.sorted, nil))
	}

	m.Peaks = []Point2D{}
	m.Valleys = []Point2D{}
	m.InflectionPoints = []Point2D{}
	for i := 1; i < len(s.ys)-1; i++ {
		prev, cur, next := s.ys[i-1], s.ys[i], s.ys[i+1]
		switch {
		case cur > prev && cur > next:
			m.Peaks = append(m.Peaks, points[i])
		case cur < prev && cur < next:
			m.Valleys = append(m.Valleys, points[i])
		}
	}
	prevCurv := 0.0
	for i := 1; i < len(s.ys)-1; i++ {
		curv := s.ys[i+1] - 2*s.ys[i] + s.ys[i-1]
		if curv == 0 {
			continue
		}
		if prevCurv != 0 && (curv > 0) != (prevCurv > 0) {
			m.InflectionPoints = append(m.InflectionPoints, points[i])
		}
		prevCurv = curv
	}
	return m, nil
}

// ComputeRange reports extremes, empirical quartiles and their spread.
func ComputeRange(op string, points []Point2D) (RangeMetrics, error) {
	s, err := newSample(op, points)
	if err != nil {
		return RangeMetrics{}, err
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		if p.Y.LessThan(lo.Y) {
			lo = p
		}
		if p.Y.GreaterThan(hi.Y) {
			hi = p
		}
	}
	q1 := stat.Quantile(0.25, stat.Empirical, s.sorted, nil)
	q2 := stat.Quantile(0.5, stat.Empirical, s.sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, s.sorted, nil)
	return RangeMetrics{
		Min:   lo,
		Max:   hi,
		Range: hi.Y.Sub(lo.Y),
		Q1:    dec(q1),
		Q2:    dec(q2),
		Q3:    dec(q3),
		IQR:   dec(q3 - q1),
	}, nil
}

// ComputeTrend fits y = intercept + slope·x by least squares and adds moving
// averages over MovingAverageWindows. R² is 1 when y is constant.
func ComputeTrend(op string, points []Point2D) (TrendMetrics, error) {
	s, err := newSample(op, points)
	if err != nil {
		return TrendMetrics{}, err
	}
	var m TrendMetrics
	mean := stat.Mean(s.sorted, nil)
	if _, xstd := stat.PopMeanStdDev(s.xs, nil); xstd == 0 {
		m.Intercept = dec(mean)
	} else {
		alpha, beta := stat.LinearRegression(s.xs, s.ys, nil, false)
		m.Slope = dec(beta)
		m.Intercept = dec(alpha)
	}

	sst := 0.0
	for _, y := range s.sorted {
		sst += (y - mean) * (y - mean)
	}
	if sst == 0 {
		m.RSquared = decimal.NewFromInt(1)
	} else {
		m.RSquared = dec(stat.RSquared(s.xs, s.ys, nil, m.Intercept.InexactFloat64(), m.Slope.InexactFloat64()))
	}

	m.MovingAverage = []Point2D{}
	for _, w := range MovingAverageWindows {
		if w > len(points) {
			continue
		}
		for i := 0; i+w <= len(points); i++ {
			m.MovingAverage = append(m.MovingAverage, Point2D{
				X: dec(stat.Mean(s.xs[i:i+w], nil)),
				Y: dec(stat.Mean(s.ys[i:i+w], nil)),
			})
		}
	}
	return m, nil
}

// ComputeRisk treats the y values as a return sample: parametric VaR at
// VaRConfidence, expected shortfall over the samples at or below it, beta as
// volatility over mean and Sharpe as mean over volatility.
func ComputeRisk(op string, points []Point2D) (RiskMetrics, error) {
	s, err := newSample(op, points)
	if err != nil {
		return RiskMetrics{}, err
	}
	mean, vol := stat.PopMeanStdDev(s.sorted, nil)
	var m RiskMetrics
	m.Volatility = dec(vol)
	if vol == 0 {
		return m, nil
	}
	z := gaussian.NewGaussian(0, 1).Ppf(VaRConfidence)
	v := mean - z*vol
	m.ValueAtRisk = dec(v)

	tail, n := 0.0, 0
	for _, y := range s.sorted {
		if y > v {
			break
		}
		tail += y
		n++
	}
	if n > 0 {
		m.ExpectedShortfall = dec(tail / float64(n))
	}
	if mean != 0 {
		m.Beta = dec(vol / mean)
	}
	m.SharpeRatio = dec(mean / vol)
	return m, nil
}

// Compute collects all five metric records.
func Compute(op string, points []Point2D) (Metrics, error) {
	var m Metrics
	var err error
	if m.Basic, err = ComputeBasic(op, points); err != nil {
		return Metrics{}, err
	}
	if m.Shape, err = ComputeShape(op, points); err != nil {
		return Metrics{}, err
	}
	if m.Range, err = ComputeRange(op, points); err != nil {
		return Metrics{}, err
	}
	if m.Trend, err = ComputeTrend(op, points); err != nil {
		return Metrics{}, err
	}
	if m.Risk, err = ComputeRisk(op, points); err != nil {
		return Metrics{}, err
	}
	return m, nil
}
