package rental

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
)

func offer(price float64, interruptible bool) domain.RentalOffer {
	return domain.RentalOffer{PricePerGPUHour: decimal.NewFromFloat(price), Interruptible: interruptible}
}

type stubRentalSource struct {
	offers   []domain.RentalOffer
	fallback bool
	err      error
}

func (s *stubRentalSource) Name() string      { return "stub-rental" }
func (s *stubRentalSource) IsAvailable() bool { return true }
func (s *stubRentalSource) FetchOffers(ctx context.Context, gpuType string) ([]domain.RentalOffer, bool, error) {
	return s.offers, s.fallback, s.err
}

func TestAggregator_UpdatePrice_EmptyOfferBookIsNotAnError(t *testing.T) {
	src := &stubRentalSource{}
	agg := New(src, logging.NewNoopLogger())

	round, err := agg.UpdatePrice(context.Background(), "H100_80GB")
	require.NoError(t, err)
	assert.Equal(t, 0, round.Stats.OfferCount)
}

func TestAggregator_UpdatePrice_FetchErrorIsSwallowedIntoZeroStats(t *testing.T) {
	src := &stubRentalSource{err: errors.New("boom")}
	agg := New(src, logging.NewNoopLogger())

	round, err := agg.UpdatePrice(context.Background(), "H100_80GB")
	require.NoError(t, err)
	assert.Equal(t, 0, round.Stats.OfferCount)
}

func TestAggregator_UpdatePrice_FallbackMarksSourceClassSimulated(t *testing.T) {
	src := &stubRentalSource{offers: []domain.RentalOffer{offer(2.0, false)}, fallback: true}
	agg := New(src, logging.NewNoopLogger())

	round, err := agg.UpdatePrice(context.Background(), "H100_80GB")
	require.NoError(t, err)
	assert.Equal(t, SourceClassSimulated, round.SourceClass)
}

func TestAggregator_UpdatePrice_RealOffersMarkSourceClassOracleService(t *testing.T) {
	src := &stubRentalSource{offers: []domain.RentalOffer{offer(2.0, false)}, fallback: false}
	agg := New(src, logging.NewNoopLogger())

	round, err := agg.UpdatePrice(context.Background(), "H100_80GB")
	require.NoError(t, err)
	assert.Equal(t, SourceClassOracleSvc, round.SourceClass)
}

func TestSummarize_ComputesMinMaxMedianAvg(t *testing.T) {
	offers := []domain.RentalOffer{offer(1.0, false), offer(2.0, false), offer(3.0, false)}
	stats := summarize("H100_80GB", offers)

	assert.True(t, stats.MinPrice.Equal(decimal.NewFromFloat(1.0)))
	assert.True(t, stats.MaxPrice.Equal(decimal.NewFromFloat(3.0)))
	assert.True(t, stats.MedianPrice.Equal(decimal.NewFromFloat(2.0)))
	assert.True(t, stats.AvgPrice.Equal(decimal.NewFromFloat(2.0)))
	assert.Equal(t, 3, stats.OfferCount)
}

func TestSummarize_SplitsInterruptibleAndOnDemandAverages(t *testing.T) {
	offers := []domain.RentalOffer{
		offer(1.0, true),
		offer(3.0, true),
		offer(10.0, false),
	}
	stats := summarize("H100_80GB", offers)

	assert.True(t, stats.InterruptibleAvg.Equal(decimal.NewFromFloat(2.0)))
	assert.True(t, stats.OnDemandAvg.Equal(decimal.NewFromFloat(10.0)))
}

func TestSummarize_AllInterruptibleLeavesOnDemandZero(t *testing.T) {
	offers := []domain.RentalOffer{offer(1.0, true), offer(2.0, true)}
	stats := summarize("H100_80GB", offers)

	assert.True(t, stats.OnDemandAvg.IsZero())
	assert.False(t, stats.InterruptibleAvg.IsZero())
}

func TestCache_SetThenGetWithinTTL(t *testing.T) {
	c := NewCache(time.Minute)
	round := Round{Stats: domain.RentalPriceStats{GPUType: "H100_80GB", OfferCount: 5}}
	c.Set("H100_80GB", round)

	got, ok := c.Get("H100_80GB")
	assert.True(t, ok)
	assert.Equal(t, 5, got.Stats.OfferCount)
}

func TestCache_GetMissingKeyReturnsFalse(t *testing.T) {
	c := NewCache(time.Minute)
	_, ok := c.Get("A100_80GB")
	assert.False(t, ok)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set("H100_80GB", Round{Stats: domain.RentalPriceStats{GPUType: "H100_80GB"}})

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("H100_80GB")
	assert.False(t, ok)
}
