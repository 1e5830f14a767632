// Package rental computes per-GPU-type rental price statistics from a
// round of offers, and caches the fused result for the rental sub-API.
package rental

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/server/sources"
)

// SourceClass describes where a rental round's offers came from, surfaced
// at the API layer alongside the cache flag.
type SourceClass string

const (
	SourceClassSimulated SourceClass = "simulated"
	SourceClassOracleSvc SourceClass = "oracle-service"
)

// Round is one fetch-and-summarize pass over a single GPU type.
type Round struct {
	Stats       domain.RentalPriceStats
	Offers      []domain.RentalOffer
	SourceClass SourceClass
}

// Aggregator computes RentalPriceStats from the configured rental
// adapter's offer book.
type Aggregator struct {
	logger *logging.Logger
	source sources.RentalSource
}

// New builds a rental aggregator over one adapter.
func New(source sources.RentalSource, logger *logging.Logger) *Aggregator {
	return &Aggregator{logger: logger, source: source}
}

// UpdatePrice fetches the current offer book for gpuType and computes
// fused stats. An empty offer book is not an error: stats are returned
// zeroed with offerCount 0.
func (a *Aggregator) UpdatePrice(ctx context.Context, gpuType string) (Round, error) {
	offers, fallback, err := a.source.FetchOffers(ctx, gpuType)
	if err != nil {
		a.logger.Warn("rental fetch failed", "gpuType", gpuType, "error", err.Error())
		return Round{Stats: domain.RentalPriceStats{GPUType: gpuType, Timestamp: domain.NowMillis()}}, nil
	}

	class := SourceClassOracleSvc
	if fallback {
		class = SourceClassSimulated
	}

	return Round{
		Stats:       summarize(gpuType, offers),
		Offers:      offers,
		SourceClass: class,
	}, nil
}

func summarize(gpuType string, offers []domain.RentalOffer) domain.RentalPriceStats {
	now := domain.NowMillis()
	if len(offers) == 0 {
		return domain.RentalPriceStats{GPUType: gpuType, Timestamp: now}
	}

	prices := make([]decimal.Decimal, len(offers))
	for i, o := range offers {
		prices[i] = o.PricePerGPUHour
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })

	sum := decimal.Zero
	var interruptibleSum, onDemandSum decimal.Decimal
	var interruptibleCount, onDemandCount int
	for _, o := range offers {
		sum = sum.Add(o.PricePerGPUHour)
		if o.Interruptible {
			interruptibleSum = interruptibleSum.Add(o.PricePerGPUHour)
			interruptibleCount++
		} else {
			onDemandSum = onDemandSum.Add(o.PricePerGPUHour)
			onDemandCount++
		}
	}

	n := decimal.NewFromInt(int64(len(offers)))
	stats := domain.RentalPriceStats{
		GPUType:     gpuType,
		MinPrice:    prices[0],
		MaxPrice:    prices[len(prices)-1],
		MedianPrice: medianOf(prices),
		AvgPrice:    sum.Div(n),
		OfferCount:  len(offers),
		Timestamp:   now,
	}
	if interruptibleCount > 0 {
		stats.InterruptibleAvg = interruptibleSum.Div(decimal.NewFromInt(int64(interruptibleCount)))
	}
	if onDemandCount > 0 {
		stats.OnDemandAvg = onDemandSum.Div(decimal.NewFromInt(int64(onDemandCount)))
	}
	return stats
}

func medianOf(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}

// cacheEntry is one cached rental-prices round, keyed by gpuType.
type cacheEntry struct {
	round     Round
	expiresAt time.Time
}

// Cache is a 60-second TTL, single-writer/multi-reader cache over the
// fused rental stats for every GPU type.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache builds an empty cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{entries: make(map[string]cacheEntry), ttl: ttl}
}

// Get returns the cached round for gpuType if still fresh.
func (c *Cache) Get(gpuType string) (Round, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[gpuType]
	if !ok || time.Now().After(entry.expiresAt) {
		return Round{}, false
	}
	return entry.round, true
}

// Set installs a fresh round for gpuType.
func (c *Cache) Set(gpuType string, round Round) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[gpuType] = cacheEntry{round: round, expiresAt: time.Now().Add(c.ttl)}
}
