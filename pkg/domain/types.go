// Package domain holds the shared value types that flow through the
// ingestion and aggregation pipeline: observations emitted by adapters,
// the per-source summaries and fused prices the aggregator produces, and
// the append-only history records persisted alongside them.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condition is the listing condition of a hardware observation.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
)

// Metadata carries optional provenance detail about a single listing.
type Metadata struct {
	ProductName string    `json:"productName,omitempty"`
	Seller      string    `json:"seller,omitempty"`
	Condition   Condition `json:"condition,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// Observation is an immutable, timestamped price reading emitted by one
// adapter for one asset. Observations from different adapters are never
// combined before outlier filtering.
type Observation struct {
	AssetID   string          `json:"assetId"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	Timestamp int64           `json:"timestamp"` // ms since epoch
	Metadata  *Metadata       `json:"metadata,omitempty"`
}

// SourceDetail summarizes one contributing source's observations for a
// single round, after outlier filtering and per-source collapsing.
type SourceDetail struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Count       int             `json:"count"`
	IsSimulated bool            `json:"isSimulated"`
}

// AggregatedPrice is the current fused state for one hardware asset after
// the most recent successful round.
type AggregatedPrice struct {
	AssetID     string          `json:"assetId"`
	Price       decimal.Decimal `json:"price"`
	TWAP        decimal.Decimal `json:"twap"`
	PriceInt    string          `json:"priceInt"` // decimal string, USD * 10^8
	SourceCount int             `json:"sourceCount"`
	Timestamp   int64           `json:"timestamp"`
	UpdatedAt   int64           `json:"updatedAt"`
	Currency    string          `json:"currency"`
	Sources     []SourceDetail  `json:"sources"`
}

// RentalOffer is one normalized listing from the rental-marketplace adapter.
type RentalOffer struct {
	GPUType         string          `json:"gpuType"`
	GPUCount        int             `json:"gpuCount"`
	PricePerHour    decimal.Decimal `json:"pricePerHour"`
	PricePerGPUHour decimal.Decimal `json:"pricePerGpuHour"`
	Reliability     decimal.Decimal `json:"reliability"`
	ProviderClass   string          `json:"providerClass"`
	Interruptible   bool            `json:"interruptible"`
}

// RentalPriceStats is the current fused state for one rental GPU type.
type RentalPriceStats struct {
	GPUType          string          `json:"gpuType"`
	MinPrice         decimal.Decimal `json:"minPrice"`
	MaxPrice         decimal.Decimal `json:"maxPrice"`
	MedianPrice      decimal.Decimal `json:"medianPrice"`
	AvgPrice         decimal.Decimal `json:"avgPrice"`
	OfferCount       int             `json:"offerCount"`
	InterruptibleAvg decimal.Decimal `json:"interruptibleAvg"`
	OnDemandAvg      decimal.Decimal `json:"onDemandAvg"`
	Timestamp        int64           `json:"timestamp"`
}

// HistoryRecord is one append-only hardware price history entry.
type HistoryRecord struct {
	AssetID     string          `json:"assetId"`
	Timestamp   int64           `json:"timestamp"`
	Price       decimal.Decimal `json:"price"`
	TWAP        decimal.Decimal `json:"twap"`
	SourceCount int             `json:"sourceCount"`
}

// RentalHistoryRecord is one append-only rental price history entry.
type RentalHistoryRecord struct {
	GPUType          string          `json:"gpuType"`
	Timestamp        int64           `json:"timestamp"`
	AvgPrice         decimal.Decimal `json:"avgPrice"`
	MinPrice         decimal.Decimal `json:"minPrice"`
	MaxPrice         decimal.Decimal `json:"maxPrice"`
	OfferCount       int             `json:"offerCount"`
	InterruptibleAvg decimal.Decimal `json:"interruptibleAvg"`
	OnDemandAvg      decimal.Decimal `json:"onDemandAvg"`
}

// NowMillis returns the current time as milliseconds since epoch, the
// timestamp unit used throughout the ingestion pipeline.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
