package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"hwp.dev/oracle/pkg/domain"
)

func TestNullStore_NotConfigured(t *testing.T) {
	var s NullStore
	assert.False(t, s.Configured())
}

func TestNullStore_InsertsAreNoOps(t *testing.T) {
	var s NullStore
	assert.NoError(t, s.InsertHardware(context.Background(), domain.HistoryRecord{}))
	assert.NoError(t, s.InsertRental(context.Background(), domain.RentalHistoryRecord{}))
}

func TestNullStore_QueriesReturnErrNotConfigured(t *testing.T) {
	var s NullStore

	_, err := s.QueryRange(context.Background(), RangeQuery{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.QueryRentalRange(context.Background(), RangeQuery{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.QueryStats(context.Background(), "GPU_RTX4090")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.QueryRentalStats(context.Background(), "H100_80GB")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
