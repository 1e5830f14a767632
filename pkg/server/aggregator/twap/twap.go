// Package twap computes a rolling, piecewise time-weighted average price
// per asset from the sequence of fused round prices the aggregator feeds
// it. It holds no knowledge of sources or outlier filtering; it only knows
// timestamps and prices.
package twap

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// observation is one (timestamp, price) sample held inside the window.
type observation struct {
	timestamp int64 // ms since epoch
	price     decimal.Decimal
}

// Calculator maintains a per-asset rolling window of observations and
// computes their time-weighted average on demand. Safe for concurrent use
// across distinct assets; a single mutex protects the whole map since
// writes are infrequent (one per scheduler tick per asset).
type Calculator struct {
	mu     sync.Mutex
	window time.Duration
	series map[string][]observation
}

// NewCalculator creates a Calculator with the given rolling window.
func NewCalculator(window time.Duration) *Calculator {
	return &Calculator{
		window: window,
		series: make(map[string][]observation),
	}
}

// AddObservation appends a new (price, timestamp) sample for assetID.
// Callers must supply non-decreasing timestamps per asset.
func (c *Calculator) AddObservation(assetID string, price decimal.Decimal, timestampMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.series[assetID] = append(c.series[assetID], observation{timestamp: timestampMs, price: price})
	c.series[assetID] = c.pruneLocked(assetID, timestampMs)
}

// pruneLocked drops every observation older than the window relative to
// now, unconditionally — once the last sample ages out, none remain.
func (c *Calculator) pruneLocked(assetID string, now int64) []observation {
	obs := c.series[assetID]
	cutoff := now - c.window.Milliseconds()

	keepFrom := 0
	for keepFrom < len(obs) && obs[keepFrom].timestamp < cutoff {
		keepFrom++
	}
	return obs[keepFrom:]
}

// GetTWAP computes the time-weighted average for assetID as of nowMs.
// It returns (price, true) if any observations remain after pruning, or
// (zero, false) if none do. A single observation returns its own price
// unweighted; with two or more, each price is weighted by the duration it
// held, and the final observation is extended forward to nowMs.
func (c *Calculator) GetTWAP(assetID string, nowMs int64) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obs := c.pruneLocked(assetID, nowMs)
	c.series[assetID] = obs

	if len(obs) == 0 {
		return decimal.Zero, false
	}
	if len(obs) == 1 {
		return obs[0].price, true
	}

	var weightedSum decimal.Decimal
	var totalWeight decimal.Decimal
	for i := 0; i < len(obs)-1; i++ {
		width := decimal.NewFromInt(obs[i+1].timestamp - obs[i].timestamp)
		weightedSum = weightedSum.Add(obs[i].price.Mul(width))
		totalWeight = totalWeight.Add(width)
	}

	last := obs[len(obs)-1]
	lastWidth := decimal.NewFromInt(nowMs - last.timestamp)
	if lastWidth.IsNegative() {
		lastWidth = decimal.Zero
	}
	weightedSum = weightedSum.Add(last.price.Mul(lastWidth))
	totalWeight = totalWeight.Add(lastWidth)

	if totalWeight.IsZero() {
		return last.price, true
	}
	return weightedSum.Div(totalWeight), true
}

// GetSpotPrice returns the most recent observation's price for assetID.
func (c *Calculator) GetSpotPrice(assetID string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obs := c.series[assetID]
	if len(obs) == 0 {
		return decimal.Zero, false
	}
	return obs[len(obs)-1].price, true
}

// Clear discards all observations for one asset.
func (c *Calculator) Clear(assetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.series, assetID)
}

// ClearAll discards every asset's observations.
func (c *Calculator) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = make(map[string][]observation)
}
