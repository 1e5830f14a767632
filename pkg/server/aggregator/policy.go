package aggregator

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/server/aggregator/illiquid"
)

// PricePolicy selects which canonical-price strategy UpdatePrice applies to
// a round's MAD-filtered observations. PolicyMedian is the default fused
// path; the illiquid-* policies trade the median's robustness for a
// smoother, confidence-scored output suited to thinly traded assets.
type PricePolicy string

const (
	PolicyMedian         PricePolicy = "median"
	PolicyIlliquidMulti  PricePolicy = "illiquid-multi"
	PolicyIlliquidEMA    PricePolicy = "illiquid-ema"
	PolicyIlliquidHybrid PricePolicy = "illiquid-hybrid"
)

// illiquidState holds the per-asset stateful policy instances. EMA and
// Hybrid carry a running value across rounds, so one instance is kept per
// asset for the life of the aggregator.
type illiquidState struct {
	mu     sync.Mutex
	ema    map[string]*illiquid.EMA
	hybrid map[string]*illiquid.Hybrid
}

func newIlliquidState() *illiquidState {
	return &illiquidState{
		ema:    make(map[string]*illiquid.EMA),
		hybrid: make(map[string]*illiquid.Hybrid),
	}
}

func (s *illiquidState) emaFor(assetID string) *illiquid.EMA {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ema[assetID]
	if !ok {
		e = illiquid.NewEMA(illiquid.DefaultEMAWindow)
		s.ema[assetID] = e
	}
	return e
}

func (s *illiquidState) hybridFor(assetID string) *illiquid.Hybrid {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hybrid[assetID]
	if !ok {
		h = illiquid.NewHybrid(illiquid.DefaultEMAWindow)
		s.hybrid[assetID] = h
	}
	return h
}

// asWeightedObservations converts filtered hardware/rental observations
// into the illiquid package's input shape. Every observation carries equal
// trade weight since the ingestion layer has no notion of listing size.
func asWeightedObservations(observations []domain.Observation) []illiquid.WeightedObservation {
	out := make([]illiquid.WeightedObservation, len(observations))
	for i, o := range observations {
		out[i] = illiquid.WeightedObservation{
			Price:     o.Price,
			Weight:    decimal.NewFromInt(1),
			Timestamp: time.UnixMilli(o.Timestamp),
		}
	}
	return out
}

// applyIlliquidPolicy runs the configured illiquid strategy over filtered
// and returns its price. A zero result (no surviving observations) leaves
// the caller to fall back to its own empty-round handling.
func (a *Aggregator) applyIlliquidPolicy(assetID string, filtered []domain.Observation, now time.Time) decimal.Decimal {
	weighted := asWeightedObservations(filtered)

	switch a.policy {
	case PolicyIlliquidEMA:
		if len(weighted) == 0 {
			return a.illiquid.emaFor(assetID).Value()
		}
		mark := median(pricesOf(weighted))
		return a.illiquid.emaFor(assetID).Update(mark, now)
	case PolicyIlliquidHybrid:
		result := a.illiquid.hybridFor(assetID).Update(weighted, nil, now, illiquid.DefaultWinsorizeFraction)
		return result.Price
	default: // PolicyIlliquidMulti
		result := illiquid.MultiComponent(weighted, nil, now, illiquid.DefaultWinsorizeFraction)
		return result.Price
	}
}

func pricesOf(observations []illiquid.WeightedObservation) []decimal.Decimal {
	prices := make([]decimal.Decimal, len(observations))
	for i, o := range observations {
		prices[i] = o.Price
	}
	return prices
}
