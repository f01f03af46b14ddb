package probability

import (
	"fmt"
	"math"
	"strings"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/models"
)

type ModelKind int

const (
	GBM ModelKind = iota
	Merton
	Kou
	VarianceGamma
	Heston
)

var modelNames = map[ModelKind]string{
	GBM:           "gbm",
	Merton:        "merton",
	Kou:           "kou",
	VarianceGamma: "vg",
	Heston:        "heston",
}

func (k ModelKind) String() string {
	if name, ok := modelNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ModelKind(%d)", int(k))
}

func ParseModelKind(s string) (ModelKind, error) {
	for k, name := range modelNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return GBM, errs.Domain("probability.ParseModelKind", "unknown model %q", s)
}

// BlendedVolatility averages the positive volatilities it is given; zero
// when there are none.
func BlendedVolatility(vols ...float64) float64 {
	sum, n := 0.0, 0
	for _, v := range vols {
		if v > 0 && !math.IsInf(v, 0) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Calibrate fits kind to log returns sampled every dt years. For GBM the
// realised volatility is blended with implied when implied is positive.
// Heston cannot be identified from returns alone; fit it to option prices
// with models.HestonModel.Calibrate.
func Calibrate(kind ModelKind, returns []float64, dt, implied float64) (models.PathModel, error) {
	switch kind {
	case GBM:
		sigma, err := models.ConstantVolatility(returns)
		if err != nil {
			return nil, err
		}
		if dt <= 0 {
			return nil, errs.Domain("probability.Calibrate", "dt=%v", dt)
		}
		return models.GeometricBrownian{Sigma: BlendedVolatility(sigma/math.Sqrt(dt), implied)}, nil
	case Merton:
		m, err := models.EstimateMerton(returns, dt)
		if err != nil {
			return nil, err
		}
		return m, nil
	case Kou:
		k, err := models.EstimateKou(returns, dt)
		if err != nil {
			return nil, err
		}
		return k, nil
	case VarianceGamma:
		vg, err := models.FitVarianceGamma(returns, dt)
		if err != nil {
			return nil, err
		}
		return vg, nil
	}
	return nil, errs.Domain("probability.Calibrate", "%s cannot be calibrated from returns", kind)
}
