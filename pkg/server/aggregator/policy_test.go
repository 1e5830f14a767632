package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/server/sources"
)

func TestAggregator_IlliquidEMA_SmoothsAcrossRounds(t *testing.T) {
	src := &toggleSource{name: "ebay", prices: []float64{1000}}
	agg := NewWithPolicy([]sources.Source{src}, time.Minute, 0.005, PolicyIlliquidEMA, logging.NewNoopLogger())

	first, _, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.True(t, first.Price.Equal(decimals(1000)[0]), "first sample seeds the EMA directly")

	// The EMA's alpha grows with elapsed time, so the second round must
	// land at least a millisecond after the first to move the value.
	time.Sleep(10 * time.Millisecond)
	src.prices = []float64{1100}
	second, _, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.True(t, second.Price.GreaterThan(decimals(1000)[0]))
}

func TestAggregator_IlliquidMulti_UsesMedianOfComponents(t *testing.T) {
	src := &toggleSource{name: "ebay", prices: []float64{1000, 1010, 990}}
	agg := NewWithPolicy([]sources.Source{src}, time.Minute, 0.005, PolicyIlliquidMulti, logging.NewNoopLogger())

	price, _, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.True(t, price.Price.GreaterThan(decimals(0)[0]))
}

func TestAggregator_IlliquidHybrid_SeedsFromFirstRound(t *testing.T) {
	src := &toggleSource{name: "ebay", prices: []float64{500}}
	agg := NewWithPolicy([]sources.Source{src}, time.Minute, 0.005, PolicyIlliquidHybrid, logging.NewNoopLogger())

	price, _, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.True(t, price.Price.Equal(decimals(500)[0]))
}

func TestNewWithPolicy_DefaultsUnaffectedMedianPath(t *testing.T) {
	src := &toggleSource{name: "ebay", prices: []float64{100, 110, 90}}
	agg := New([]sources.Source{src}, time.Minute, 0.005, logging.NewNoopLogger())
	assert.Equal(t, PolicyMedian, agg.policy)
}
