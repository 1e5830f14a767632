package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/metrics"
	"hwp.dev/oracle/pkg/server/aggregator/twap"
	"hwp.dev/oracle/pkg/server/sources"
)

// priceScale is 10^8, the fixed-point scale applied to priceInt per the
// Chainlink-style envelope convention.
var priceScale = decimal.New(1, 8)

// Aggregator fans out to every enabled hardware source, fuses the results,
// and keeps a PriceStore of the latest fused value per asset.
type Aggregator struct {
	logger  *logging.Logger
	sources []sources.Source
	store   *PriceStore
	twap    *twap.Calculator

	threshold decimal.Decimal

	policy   PricePolicy
	illiquid *illiquidState
}

// New builds an Aggregator over the given adapter set, using the default
// median policy.
func New(adapterSet []sources.Source, twapWindow time.Duration, changeThreshold float64, logger *logging.Logger) *Aggregator {
	return NewWithPolicy(adapterSet, twapWindow, changeThreshold, PolicyMedian, logger)
}

// NewWithPolicy builds an Aggregator using the given canonical-price
// policy.
func NewWithPolicy(adapterSet []sources.Source, twapWindow time.Duration, changeThreshold float64, policy PricePolicy, logger *logging.Logger) *Aggregator {
	return &Aggregator{
		logger:    logger,
		sources:   adapterSet,
		store:     NewPriceStore(),
		twap:      twap.NewCalculator(twapWindow),
		threshold: decimal.NewFromFloat(changeThreshold),
		policy:    policy,
		illiquid:  newIlliquidState(),
	}
}

// Store returns the aggregator's backing price store.
func (a *Aggregator) Store() *PriceStore {
	return a.store
}

// UpdatePrice runs one fusion round for a single asset.
func (a *Aggregator) UpdatePrice(ctx context.Context, assetID string) (domain.AggregatedPrice, bool, error) {
	if !catalog.IsHardwareAsset(assetID) {
		return domain.AggregatedPrice{}, false, fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}

	start := time.Now()
	observations := a.fanOut(ctx, assetID)
	a.logger.Debug("collected observations", "assetId", assetID, "count", len(observations))

	filtered := FilterMAD(observations, MADZScoreThreshold)
	if rejected := len(observations) - len(filtered); rejected > 0 {
		metrics.RecordOutlierRejection(assetID, rejected)
	}

	prices := make([]decimal.Decimal, len(filtered))
	for i, o := range filtered {
		prices[i] = o.Price
	}

	now := domain.NowMillis()

	medianPrice := decimal.Zero
	if a.policy != PolicyMedian {
		medianPrice = a.applyIlliquidPolicy(assetID, filtered, time.UnixMilli(now))
	} else if len(filtered) > 0 {
		medianPrice = median(prices)
	}
	twapPrice := medianPrice
	if medianPrice.GreaterThan(decimal.Zero) {
		a.twap.AddObservation(assetID, medianPrice, now)
		if t, ok := a.twap.GetTWAP(assetID, now); ok {
			twapPrice = t
		}
	}

	sourceDetails := collapseBySource(filtered)

	previous, hadPrevious := a.store.Get(assetID)

	if len(filtered) == 0 {
		metrics.RecordRound(assetID, time.Since(start))
		if !hadPrevious {
			// No current price can be installed on the very first round
			// with zero surviving observations.
			return domain.AggregatedPrice{}, false, fmt.Errorf("%w: %s", ErrNoObservations, assetID)
		}
		// Keep the last good value; its timestamp stays put so staleness
		// can be derived downstream.
		return previous, false, nil
	}

	priceInt := medianPrice.Mul(priceScale).Round(0).BigInt().String()

	aggregated := domain.AggregatedPrice{
		AssetID:     assetID,
		Price:       medianPrice,
		TWAP:        twapPrice,
		PriceInt:    priceInt,
		SourceCount: len(sourceDetails),
		Timestamp:   now,
		UpdatedAt:   now,
		Currency:    "USD",
		Sources:     sourceDetails,
	}

	changed := !hadPrevious
	if hadPrevious && !previous.Price.IsZero() {
		deviation := aggregated.Price.Sub(previous.Price).Abs().Div(previous.Price)
		changed = deviation.GreaterThanOrEqual(a.threshold)
	}

	a.store.Set(aggregated)
	metrics.RecordRound(assetID, time.Since(start))
	if changed {
		metrics.RecordPriceChange(assetID)
	}

	return aggregated, changed, nil
}

// UpdateAllPrices runs UpdatePrice for every catalog hardware asset.
// Per-asset failures are logged and do not abort the round.
func (a *Aggregator) UpdateAllPrices(ctx context.Context) map[string]domain.AggregatedPrice {
	results := make(map[string]domain.AggregatedPrice, len(catalog.Hardware))
	for _, assetID := range catalog.HardwareIDs() {
		price, _, err := a.UpdatePrice(ctx, assetID)
		if err != nil {
			a.logger.Error("failed to update price", "assetId", assetID, "error", err.Error())
			continue
		}
		results[assetID] = price
	}
	return results
}

// GetPrice returns the stored price for assetID, if any.
func (a *Aggregator) GetPrice(assetID string) (domain.AggregatedPrice, bool) {
	return a.store.Get(assetID)
}

// GetAllPrices returns a snapshot of every stored price.
func (a *Aggregator) GetAllPrices() map[string]domain.AggregatedPrice {
	return a.store.All()
}

// fanOut queries every enabled source concurrently and flattens the
// results. A source that errors contributes an empty list; the round
// continues with whatever succeeded.
func (a *Aggregator) fanOut(ctx context.Context, assetID string) []domain.Observation {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var all []domain.Observation

	for _, src := range a.sources {
		if !src.IsAvailable() {
			continue
		}
		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()
			obs, err := src.FetchPrices(ctx, assetID)
			if err != nil {
				a.logger.Warn("adapter fetch failed", "source", src.Name(), "assetId", assetID, "error", err.Error())
				metrics.RecordAdapterError(src.Name(), adapterErrorCode(err))
				metrics.RecordAdapterHealth(src.Name(), false)
				return
			}
			metrics.RecordAdapterHealth(src.Name(), true)
			metrics.RecordObservations(src.Name(), assetID, len(obs))
			mu.Lock()
			all = append(all, obs...)
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return all
}

// adapterErrorCode extracts the AdapterError code from err, falling back
// to a generic label for errors that didn't originate from an adapter.
func adapterErrorCode(err error) string {
	var adapterErr *sources.AdapterError
	if errors.As(err, &adapterErr) {
		return string(adapterErr.Code)
	}
	return "UNKNOWN"
}

// collapseBySource groups filtered observations by their originating
// adapter and reduces each group to a SourceDetail.
func collapseBySource(observations []domain.Observation) []domain.SourceDetail {
	bySource := make(map[string][]decimal.Decimal)
	order := make([]string, 0)
	for _, o := range observations {
		if _, seen := bySource[o.Source]; !seen {
			order = append(order, o.Source)
		}
		bySource[o.Source] = append(bySource[o.Source], o.Price)
	}

	details := make([]domain.SourceDetail, 0, len(order))
	for _, name := range order {
		prices := bySource[name]
		details = append(details, domain.SourceDetail{
			Name:        sources.DisplayName(name),
			Price:       median(prices),
			Count:       len(prices),
			IsSimulated: name == "mock",
		})
	}
	return details
}
