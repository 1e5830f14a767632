package aggregator

import (
	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/domain"
)

// MADZScoreThreshold is the default z-score cutoff for the MAD filter.
const MADZScoreThreshold = 3.0

// madScaleConstant (1.4826) converts MAD into a consistent estimator of
// the standard deviation under a normal distribution.
var madScaleConstant = decimal.NewFromFloat(1.4826)

// FilterMAD rejects observations whose median-absolute-deviation z-score
// exceeds threshold. Fewer than 3 observations are returned unchanged,
// since a robust deviation estimate needs at least that many points.
func FilterMAD(observations []domain.Observation, threshold float64) []domain.Observation {
	if len(observations) < 3 {
		return observations
	}

	prices := make([]decimal.Decimal, len(observations))
	for i, o := range observations {
		prices[i] = o.Price
	}

	m := median(prices)

	deviations := make([]decimal.Decimal, len(prices))
	for i, p := range prices {
		deviations[i] = p.Sub(m).Abs()
	}
	d := median(deviations)

	effectiveD := d
	if d.IsZero() {
		effectiveD = m.Mul(decimal.NewFromFloat(0.01))
	}

	thresholdDec := decimal.NewFromFloat(threshold)
	filtered := make([]domain.Observation, 0, len(observations))
	for i, o := range observations {
		if effectiveD.IsZero() {
			// Degenerate case: m is also zero, so every price already
			// equals the median and no deviation is possible.
			filtered = append(filtered, o)
			continue
		}
		z := deviations[i].Div(madScaleConstant.Mul(effectiveD)).Abs()
		if z.LessThanOrEqual(thresholdDec) {
			filtered = append(filtered, o)
		}
	}

	return filtered
}
