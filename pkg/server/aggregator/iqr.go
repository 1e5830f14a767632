package aggregator

import (
	"sort"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/domain"
)

// IQRMultiplier (k) is the default fence width in interquartile ranges.
const IQRMultiplier = 1.5

// FilterIQR rejects observations outside [Q1 - k*IQR, Q3 + k*IQR]. It
// requires at least 4 observations, below which it returns the input
// unchanged; Q1/Q3 are taken by floor-index at the 25%/75% marks of the
// sorted values, matching the simple (not interpolated) quartile method.
func FilterIQR(observations []domain.Observation, k float64) []domain.Observation {
	if len(observations) < 4 {
		return observations
	}

	sorted := make([]domain.Observation, len(observations))
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Price.LessThan(sorted[j].Price)
	})

	n := len(sorted)
	q1 := sorted[n/4].Price
	q3 := sorted[3*n/4].Price
	iqr := q3.Sub(q1)

	kDec := decimal.NewFromFloat(k)
	lowerFence := q1.Sub(iqr.Mul(kDec))
	upperFence := q3.Add(iqr.Mul(kDec))

	filtered := make([]domain.Observation, 0, len(observations))
	for _, o := range observations {
		if o.Price.GreaterThanOrEqual(lowerFence) && o.Price.LessThanOrEqual(upperFence) {
			filtered = append(filtered, o)
		}
	}

	return filtered
}
