package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/server/sources"
)

// fakeSource is a stub sources.Source returning a fixed observation set,
// used to drive UpdatePrice without touching any real adapter.
type fakeSource struct {
	name      string
	available bool
	prices    []float64
	err       error
}

func (f *fakeSource) Name() string      { return f.name }
func (f *fakeSource) IsAvailable() bool { return f.available }
func (f *fakeSource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	if f.err != nil {
		return nil, f.err
	}
	obs := make([]domain.Observation, len(f.prices))
	for i, p := range f.prices {
		obs[i] = domain.Observation{AssetID: assetID, Price: decimals(p)[0], Source: f.name}
	}
	return obs, nil
}

func TestAggregator_UpdatePrice_UnknownAsset(t *testing.T) {
	agg := New(nil, time.Minute, 0.005, logging.NewNoopLogger())
	_, _, err := agg.UpdatePrice(context.Background(), "NOT_A_REAL_ASSET")
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestAggregator_UpdatePrice_NoObservationsFirstRound(t *testing.T) {
	agg := New([]sources.Source{}, time.Minute, 0.005, logging.NewNoopLogger())
	_, _, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	assert.ErrorIs(t, err, ErrNoObservations)
}

func TestAggregator_UpdatePrice_FusesSingleSource(t *testing.T) {
	src := &fakeSource{name: "ebay", available: true, prices: []float64{1500, 1510, 1490}}
	agg := New([]sources.Source{src}, time.Minute, 0.005, logging.NewNoopLogger())

	price, changed, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, price.Price.Equal(decimals(1500)[0]))
	assert.Equal(t, 1, price.SourceCount)
	assert.Equal(t, "USD", price.Currency)
}

func TestAggregator_UpdatePrice_UnavailableSourceSkipped(t *testing.T) {
	unavailable := &fakeSource{name: "amazon", available: false, prices: []float64{1500}}
	agg := New([]sources.Source{unavailable}, time.Minute, 0.005, logging.NewNoopLogger())

	_, _, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	assert.ErrorIs(t, err, ErrNoObservations)
}

func TestAggregator_UpdatePrice_SecondRoundKeepsLastOnEmpty(t *testing.T) {
	toggling := &toggleSource{name: "ebay", prices: []float64{1500, 1510}}
	agg := New([]sources.Source{toggling}, time.Minute, 0.005, logging.NewNoopLogger())

	first, _, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)

	toggling.fail = true
	second, changed, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, second.Price.Equal(first.Price))
}

func TestAggregator_UpdatePrice_ChangeDetectionThreshold(t *testing.T) {
	src := &toggleSource{name: "ebay", prices: []float64{1000}}
	agg := New([]sources.Source{src}, time.Minute, 0.10, logging.NewNoopLogger())

	_, _, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)

	src.prices = []float64{1050} // 5% move, below the 10% threshold
	_, changed, err := agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.False(t, changed)

	src.prices = []float64{1200} // ~14% move from the stored 1050, above the 10% threshold
	_, changed, err = agg.UpdatePrice(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	assert.True(t, changed)
}

// toggleSource lets a test flip availability/failure mid-run to exercise
// UpdatePrice's empty-round fallback path.
type toggleSource struct {
	name   string
	prices []float64
	fail   bool
}

func (t *toggleSource) Name() string      { return t.name }
func (t *toggleSource) IsAvailable() bool { return true }
func (t *toggleSource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	if t.fail {
		return nil, nil
	}
	obs := make([]domain.Observation, len(t.prices))
	for i, p := range t.prices {
		obs[i] = domain.Observation{AssetID: assetID, Price: decimals(p)[0], Source: t.name}
	}
	return obs, nil
}
