// Package history persists append-only price records to an external HTTP
// service, with a no-op fallback when none is configured.
package history

import (
	"context"

	"hwp.dev/oracle/pkg/domain"
)

// RangeQuery filters a history read: all fields are optional except Limit,
// which callers should default to a sane page size before calling.
type RangeQuery struct {
	SeriesKey string
	StartMs   int64
	EndMs     int64
	Limit     int
}

// Stats summarizes one series over whatever range the store chooses to
// report on (typically its full retention window).
type Stats struct {
	SeriesKey       string  `json:"seriesKey"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	Avg             float64 `json:"avg"`
	Count           int     `json:"count"`
	OldestTimestamp int64   `json:"oldestTimestamp"`
	NewestTimestamp int64   `json:"newestTimestamp"`
}

// Store is the append-only history backend contract.
type Store interface {
	// InsertHardware appends one hardware price record. Errors are always
	// swallowed by callers and logged; insertion never fails the request
	// that triggered it.
	InsertHardware(ctx context.Context, record domain.HistoryRecord) error

	// InsertRental appends one rental price record.
	InsertRental(ctx context.Context, record domain.RentalHistoryRecord) error

	// QueryRange returns matching hardware records, or ErrNotConfigured if
	// no store is configured.
	QueryRange(ctx context.Context, q RangeQuery) ([]domain.HistoryRecord, error)

	// QueryRentalRange returns matching rental records, or
	// ErrNotConfigured if no store is configured.
	QueryRentalRange(ctx context.Context, q RangeQuery) ([]domain.RentalHistoryRecord, error)

	// QueryStats returns aggregate hardware stats for one series, or
	// ErrNotConfigured if no store is configured.
	QueryStats(ctx context.Context, seriesKey string) (Stats, error)

	// QueryRentalStats returns aggregate rental stats for one GPU type, or
	// ErrNotConfigured if no store is configured.
	QueryRentalStats(ctx context.Context, gpuType string) (Stats, error)

	// Configured reports whether a real backing store is configured; it
	// does not check that the store is reachable.
	Configured() bool
}
