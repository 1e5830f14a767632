package illiquid

import (
	"time"

	"github.com/shopspring/decimal"
)

// Hybrid runs the multi-component policy and feeds its output price as the
// EMA's mark, emitting the EMA's smoothed output as the final price.
// Confidence blends the multi-component confidence (60%) with a fixed EMA
// contribution (40%).
type Hybrid struct {
	ema *EMA
}

// NewHybrid creates a Hybrid policy with the given EMA window.
func NewHybrid(emaWindow time.Duration) *Hybrid {
	return &Hybrid{ema: NewEMA(emaWindow)}
}

// Update runs one round: multi-component first, then folds its price into
// the EMA. The EMA side contributes a fixed confidence of 1.0 once seeded
// (0 before the first sample), since the EMA policy itself defines no
// confidence score of its own.
func (h *Hybrid) Update(observations []WeightedObservation, quote *BidAsk, now time.Time, winsorizeFraction float64) Result {
	multi := MultiComponent(observations, quote, now, winsorizeFraction)
	if multi.Price.IsZero() {
		return Result{Price: h.ema.Value(), Confidence: decimal.Zero}
	}

	emaValue := h.ema.Update(multi.Price, now)

	emaConfidence := decimal.NewFromInt(1)
	confidence := decimal.NewFromFloat(0.6).Mul(multi.Confidence).
		Add(decimal.NewFromFloat(0.4).Mul(emaConfidence))

	return Result{Price: emaValue, Confidence: confidence}
}
