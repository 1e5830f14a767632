package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwp.dev/oracle/pkg/logging"
)

func TestSource_IsAlwaysAvailable(t *testing.T) {
	s := New(logging.NewNoopLogger())
	assert.True(t, s.IsAvailable())
}

func TestSource_Name(t *testing.T) {
	s := New(logging.NewNoopLogger())
	assert.Equal(t, "mock", s.Name())
}

func TestSource_FetchPrices_ReturnsObservationsInRange(t *testing.T) {
	s := New(logging.NewNoopLogger())
	obs, err := s.FetchPrices(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(obs), 3)
	assert.LessOrEqual(t, len(obs), 7)

	for _, o := range obs {
		assert.Equal(t, "GPU_RTX4090", o.AssetID)
		assert.Equal(t, "mock", o.Source)
		assert.True(t, o.Price.IsPositive())
		require.NotNil(t, o.Metadata)
		assert.Equal(t, "simulated-marketplace", o.Metadata.Seller)
	}
}

func TestSource_FetchPrices_UnknownAssetFallsBackToError(t *testing.T) {
	s := New(logging.NewNoopLogger())
	_, err := s.FetchPrices(context.Background(), "NOT_A_REAL_ASSET")
	assert.Error(t, err)
}

func TestSource_FetchPrices_WalkStaysPositiveOverManyRounds(t *testing.T) {
	s := New(logging.NewNoopLogger())
	for i := 0; i < 200; i++ {
		obs, err := s.FetchPrices(context.Background(), "RAM_DDR5_32")
		require.NoError(t, err)
		for _, o := range obs {
			assert.True(t, o.Price.IsPositive())
		}
	}
}

// TestSource_FetchPrices_ConcurrentCallsDoNotRaceOnWalk exercises the same
// concurrent-access pattern as a ticker-driven scheduler tick racing an
// HTTP-triggered refresh: both hit the same asset's walk entry at once.
// Run with -race to catch a regression of the mutex around s.walk.
func TestSource_FetchPrices_ConcurrentCallsDoNotRaceOnWalk(t *testing.T) {
	s := New(logging.NewNoopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.FetchPrices(context.Background(), "GPU_RTX4090")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
