package illiquid

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultEMAWindow is W_ema, the nominal smoothing window.
const DefaultEMAWindow = 2 * time.Hour

// DefaultExternalWeight and DefaultMarkWeight are the output blend
// weights when an external price is supplied alongside the EMA mark.
const (
	DefaultExternalWeight = 1.0 / 3.0
	DefaultMarkWeight     = 2.0 / 3.0
)

// EMA maintains an exponential moving average of a "mark" price whose
// alpha adapts to the gap between samples, so a burst of closely spaced
// updates doesn't over-weight the newest one relative to a quiet period.
type EMA struct {
	window     time.Duration
	value      decimal.Decimal
	lastSample time.Time
	seeded     bool
}

// NewEMA creates an EMA with the given smoothing window.
func NewEMA(window time.Duration) *EMA {
	return &EMA{window: window}
}

// Update folds mark into the EMA, weighting it by alpha = 1 - exp(-dt/(W/3)).
// The first call seeds the EMA directly with mark.
func (e *EMA) Update(mark decimal.Decimal, at time.Time) decimal.Decimal {
	if !e.seeded {
		e.value = mark
		e.lastSample = at
		e.seeded = true
		return e.value
	}

	dt := at.Sub(e.lastSample).Seconds()
	if dt < 0 {
		dt = 0
	}
	tau := e.window.Seconds() / 3.0
	alpha := 1 - math.Exp(-dt/tau)
	alphaDec := decimal.NewFromFloat(alpha)

	e.value = mark.Mul(alphaDec).Add(e.value.Mul(decimal.NewFromInt(1).Sub(alphaDec)))
	e.lastSample = at
	return e.value
}

// Value returns the current EMA value.
func (e *EMA) Value() decimal.Decimal {
	return e.value
}

// Blend combines an external price with the EMA mark using the configured
// weights, normalized by their sum. A zero externalWeight (or absent
// external price) returns the EMA mark unchanged.
func Blend(ema, external decimal.Decimal, hasExternal bool, externalWeight, markWeight float64) decimal.Decimal {
	if !hasExternal {
		return ema
	}
	extW := decimal.NewFromFloat(externalWeight)
	markW := decimal.NewFromFloat(markWeight)
	total := extW.Add(markW)
	if total.IsZero() {
		return ema
	}
	return external.Mul(extW).Add(ema.Mul(markW)).Div(total)
}
