package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hwp.dev/oracle/pkg/domain"
)

func TestPriceStore_GetMissing(t *testing.T) {
	store := NewPriceStore()
	_, ok := store.Get("GPU_RTX4090")
	assert.False(t, ok)
}

func TestPriceStore_SetThenGet(t *testing.T) {
	store := NewPriceStore()
	store.Set(domain.AggregatedPrice{AssetID: "GPU_RTX4090", Price: decimals(1500)[0]})

	price, ok := store.Get("GPU_RTX4090")
	assert.True(t, ok)
	assert.True(t, price.Price.Equal(decimals(1500)[0]))
}

func TestPriceStore_AllReturnsSnapshot(t *testing.T) {
	store := NewPriceStore()
	store.Set(domain.AggregatedPrice{AssetID: "GPU_RTX4090"})
	store.Set(domain.AggregatedPrice{AssetID: "GPU_RTX4080"})

	all := store.All()
	assert.Len(t, all, 2)

	all["GPU_RTX4090"] = domain.AggregatedPrice{AssetID: "mutated"}
	price, _ := store.Get("GPU_RTX4090")
	assert.Equal(t, "GPU_RTX4090", price.AssetID)
}
