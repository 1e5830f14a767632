package illiquid

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// salesFloorHalfLife is the exponential time-decay half-life for the
// sales-floor component.
const salesFloorHalfLife = 30 * time.Minute

// DefaultWinsorizeFraction bounds how far a component may deviate from the
// cross-component median before it is clamped to the fence.
const DefaultWinsorizeFraction = 0.05

// MultiComponent computes the canonical price from up to three
// components: trade-weighted mean, time-decayed sales floor, and bid-ask
// mid.
func MultiComponent(observations []WeightedObservation, quote *BidAsk, now time.Time, winsorizeFraction float64) Result {
	var components []decimal.Decimal

	if tw, ok := tradeWeighted(observations); ok {
		components = append(components, tw)
	}
	if sf, ok := salesFloor(observations, now); ok {
		components = append(components, sf)
	}
	if quote != nil && quote.Bid.GreaterThan(decimal.Zero) && quote.Ask.GreaterThan(decimal.Zero) && quote.Bid.LessThanOrEqual(quote.Ask) {
		components = append(components, quote.Bid.Add(quote.Ask).Div(decimal.NewFromInt(2)))
	}

	if len(components) == 0 {
		return Result{}
	}

	initial := medianDecimal(components)
	fence := decimal.NewFromFloat(winsorizeFraction)

	winsorized := make([]decimal.Decimal, len(components))
	for i, c := range components {
		deviation := c.Sub(initial).Div(initial).Abs()
		if deviation.GreaterThan(fence) {
			if c.GreaterThan(initial) {
				winsorized[i] = initial.Mul(decimal.NewFromInt(1).Add(fence))
			} else {
				winsorized[i] = initial.Mul(decimal.NewFromInt(1).Sub(fence))
			}
			continue
		}
		winsorized[i] = c
	}

	final := medianDecimal(winsorized)

	maxSpread := decimal.Zero
	for _, c := range winsorized {
		spread := c.Sub(final).Abs()
		if spread.GreaterThan(maxSpread) {
			maxSpread = spread
		}
	}
	spreadRatio := 0.0
	if !final.IsZero() {
		spreadRatio, _ = maxSpread.Div(final).Float64()
	}

	componentScore := math.Min(float64(len(components))/3.0, 1.0)
	spreadScore := math.Max(0, 1-spreadRatio*2)
	confidence := 0.5*componentScore + 0.5*spreadScore

	return Result{Price: final, Confidence: decimal.NewFromFloat(confidence)}
}

func tradeWeighted(observations []WeightedObservation) (decimal.Decimal, bool) {
	if len(observations) == 0 {
		return decimal.Zero, false
	}
	var weightedSum, totalWeight decimal.Decimal
	for _, o := range observations {
		weightedSum = weightedSum.Add(o.Price.Mul(o.Weight))
		totalWeight = totalWeight.Add(o.Weight)
	}
	if totalWeight.IsZero() {
		return decimal.Zero, false
	}
	return weightedSum.Div(totalWeight), true
}

// salesFloor computes an exponentially time-decayed weighted average of
// MAD-filtered observations, with a 30-minute half-life.
func salesFloor(observations []WeightedObservation, now time.Time) (decimal.Decimal, bool) {
	filtered := madFilterWeighted(observations)
	if len(filtered) == 0 {
		return decimal.Zero, false
	}

	halfLifeSeconds := salesFloorHalfLife.Seconds()
	var weightedSum, totalWeight decimal.Decimal
	for _, o := range filtered {
		ageSeconds := now.Sub(o.Timestamp).Seconds()
		if ageSeconds < 0 {
			ageSeconds = 0
		}
		decay := math.Exp(-math.Ln2 * ageSeconds / halfLifeSeconds)
		weight := decimal.NewFromFloat(decay)
		weightedSum = weightedSum.Add(o.Price.Mul(weight))
		totalWeight = totalWeight.Add(weight)
	}
	if totalWeight.IsZero() {
		return decimal.Zero, false
	}
	return weightedSum.Div(totalWeight), true
}

// madFilterWeighted applies the same MAD z-score rule as the hardware
// pipeline's outlier filter, operating on WeightedObservation instead of
// domain.Observation to avoid coupling this optional policy package to the
// default ingestion path's types.
func madFilterWeighted(observations []WeightedObservation) []WeightedObservation {
	if len(observations) < 3 {
		return observations
	}

	prices := make([]decimal.Decimal, len(observations))
	for i, o := range observations {
		prices[i] = o.Price
	}
	m := medianDecimal(prices)

	deviations := make([]decimal.Decimal, len(prices))
	for i, p := range prices {
		deviations[i] = p.Sub(m).Abs()
	}
	d := medianDecimal(deviations)

	effectiveD := d
	if d.IsZero() {
		effectiveD = m.Mul(decimal.NewFromFloat(0.01))
	}
	if effectiveD.IsZero() {
		return observations
	}

	scale := decimal.NewFromFloat(1.4826)
	threshold := decimal.NewFromFloat(3.0)

	filtered := make([]WeightedObservation, 0, len(observations))
	for i, o := range observations {
		z := deviations[i].Div(scale.Mul(effectiveD)).Abs()
		if z.LessThanOrEqual(threshold) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

func medianDecimal(values []decimal.Decimal) decimal.Decimal {
	n := len(values)
	if n == 0 {
		return decimal.Zero
	}
	sorted := make([]decimal.Decimal, n)
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}
