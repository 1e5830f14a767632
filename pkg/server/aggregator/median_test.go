package aggregator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func decimals(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestMedian_Empty(t *testing.T) {
	assert.True(t, median(nil).IsZero())
}

func TestMedian_Odd(t *testing.T) {
	m := median(decimals(3, 1, 2))
	assert.True(t, m.Equal(decimal.NewFromInt(2)))
}

func TestMedian_Even(t *testing.T) {
	m := median(decimals(1, 2, 3, 4))
	assert.True(t, m.Equal(decimal.NewFromFloat(2.5)))
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	prices := decimals(5, 1, 3)
	_ = median(prices)
	assert.True(t, prices[0].Equal(decimal.NewFromInt(5)))
	assert.True(t, prices[1].Equal(decimal.NewFromInt(1)))
	assert.True(t, prices[2].Equal(decimal.NewFromInt(3)))
}
