// Package illiquid implements three optional canonical-price policies for
// thinly-traded assets. None sits on the default hardware/rental path; each
// is reachable by explicit configuration for callers that need a smoother
// price than "the last round's median".
package illiquid

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeightedObservation is one (price, weight, timestamp) input sample, used
// by the multi-component policy's trade-weighted and sales-floor
// components.
type WeightedObservation struct {
	Price     decimal.Decimal
	Weight    decimal.Decimal
	Timestamp time.Time
}

// BidAsk is one best-bid/best-ask snapshot.
type BidAsk struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

// Result is a computed canonical price plus a confidence score in [0, 1].
type Result struct {
	Price      decimal.Decimal
	Confidence decimal.Decimal
}
