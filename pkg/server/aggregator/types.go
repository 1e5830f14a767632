package aggregator

import (
	"sync"

	"hwp.dev/oracle/pkg/domain"
)

// PriceStore holds the most recently aggregated price for every asset,
// guarded by a single RWMutex since reads (HTTP handlers) vastly
// outnumber writes (scheduler ticks).
type PriceStore struct {
	mu     sync.RWMutex
	prices map[string]domain.AggregatedPrice
}

// NewPriceStore creates an empty store.
func NewPriceStore() *PriceStore {
	return &PriceStore{prices: make(map[string]domain.AggregatedPrice)}
}

// Set installs the latest aggregated price for an asset.
func (s *PriceStore) Set(price domain.AggregatedPrice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[price.AssetID] = price
}

// Get returns the current price for an asset and whether one exists.
func (s *PriceStore) Get(assetID string) (domain.AggregatedPrice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[assetID]
	return p, ok
}

// All returns a snapshot of every currently stored price.
func (s *PriceStore) All() map[string]domain.AggregatedPrice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.AggregatedPrice, len(s.prices))
	for k, v := range s.prices {
		out[k] = v
	}
	return out
}
