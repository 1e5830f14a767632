package illiquid

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func weighted(prices ...float64) []WeightedObservation {
	now := time.Unix(1000, 0)
	obs := make([]WeightedObservation, len(prices))
	for i, p := range prices {
		obs[i] = WeightedObservation{Price: decimal.NewFromFloat(p), Weight: decimal.NewFromInt(1), Timestamp: now}
	}
	return obs
}

func TestMultiComponent_NoInputsReturnsZeroResult(t *testing.T) {
	result := MultiComponent(nil, nil, time.Unix(1000, 0), DefaultWinsorizeFraction)
	assert.True(t, result.Price.IsZero())
}

func TestMultiComponent_SingleObservationReturnsItsPrice(t *testing.T) {
	result := MultiComponent(weighted(500), nil, time.Unix(1000, 0), DefaultWinsorizeFraction)
	assert.True(t, result.Price.Equal(decimal.NewFromInt(500)))
}

func TestMultiComponent_BidAskMidIsUsedWhenValid(t *testing.T) {
	quote := &BidAsk{Bid: decimal.NewFromInt(90), Ask: decimal.NewFromInt(110)}
	result := MultiComponent(nil, quote, time.Unix(1000, 0), DefaultWinsorizeFraction)
	assert.True(t, result.Price.Equal(decimal.NewFromInt(100)))
}

func TestMultiComponent_InvertedQuoteIsIgnored(t *testing.T) {
	quote := &BidAsk{Bid: decimal.NewFromInt(110), Ask: decimal.NewFromInt(90)}
	result := MultiComponent(nil, quote, time.Unix(1000, 0), DefaultWinsorizeFraction)
	assert.True(t, result.Price.IsZero())
}

func TestMultiComponent_ConfidenceIncreasesWithAgreement(t *testing.T) {
	now := time.Unix(1000, 0)
	quote := &BidAsk{Bid: decimal.NewFromInt(99), Ask: decimal.NewFromInt(101)}
	agreeing := MultiComponent(weighted(100, 100), quote, now, DefaultWinsorizeFraction)

	disagreeingQuote := &BidAsk{Bid: decimal.NewFromInt(49), Ask: decimal.NewFromInt(51)}
	disagreeing := MultiComponent(weighted(100, 100), disagreeingQuote, now, DefaultWinsorizeFraction)

	assert.True(t, agreeing.Confidence.GreaterThan(disagreeing.Confidence))
}
