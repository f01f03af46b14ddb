package probability

import (
	"math"
	"sort"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/chobie/go-gaussian"
	"gonum.org/v1/gonum/stat"
)

// tail holds the loss statistics of a P&L sample.
type tail struct {
	valueAtRisk       float64
	expectedShortfall float64
	parametric        float64
}

// lossTail returns the historical VaR at confidence (a loss, positive when
// the quantile P&L is negative), the mean loss at or beyond it, and the
// normal-approximation VaR.
func lossTail(pnls []float64, confidence float64) (tail, error) {
	if len(pnls) == 0 {
		return tail{}, errs.InsufficientData("probability.VaR", "no samples")
	}
	if !(confidence > 0 && confidence < 1) {
		return tail{}, errs.Domain("probability.VaR", "confidence %v outside (0, 1)", confidence)
	}
	sorted := make([]float64, len(pnls))
	copy(sorted, pnls)
	sort.Float64s(sorted)

	index := int(math.Floor(float64(len(sorted)) * (1 - confidence)))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	worst := stat.Mean(sorted[:index+1], nil)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	z := gaussian.NewGaussian(0, 1).Ppf(confidence)
	return tail{
		valueAtRisk:       -sorted[index],
		expectedShortfall: -worst,
		parametric:        -(mean - z*std),
	}, nil
}

// ValueAtRisk is the historical loss not exceeded with probability
// confidence.
func ValueAtRisk(pnls []float64, confidence float64) (float64, error) {
	t, err := lossTail(pnls, confidence)
	return t.valueAtRisk, err
}
