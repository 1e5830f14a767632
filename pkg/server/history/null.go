package history

import (
	"context"

	"hwp.dev/oracle/pkg/domain"
)

// NullStore is the Store implementation used when HISTORY_STORE_URL is
// unset: inserts are silently dropped and reads report ErrNotConfigured.
type NullStore struct{}

var _ Store = NullStore{}

func (NullStore) InsertHardware(ctx context.Context, record domain.HistoryRecord) error { return nil }
func (NullStore) InsertRental(ctx context.Context, record domain.RentalHistoryRecord) error {
	return nil
}

func (NullStore) QueryRange(ctx context.Context, q RangeQuery) ([]domain.HistoryRecord, error) {
	return nil, ErrNotConfigured
}

func (NullStore) QueryRentalRange(ctx context.Context, q RangeQuery) ([]domain.RentalHistoryRecord, error) {
	return nil, ErrNotConfigured
}

func (NullStore) QueryStats(ctx context.Context, seriesKey string) (Stats, error) {
	return Stats{}, ErrNotConfigured
}

func (NullStore) QueryRentalStats(ctx context.Context, gpuType string) (Stats, error) {
	return Stats{}, ErrNotConfigured
}

func (NullStore) Configured() bool { return false }
