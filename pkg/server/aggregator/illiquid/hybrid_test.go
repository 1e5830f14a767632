package illiquid

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHybrid_FirstRoundSeedsFromMultiComponent(t *testing.T) {
	h := NewHybrid(DefaultEMAWindow)
	now := time.Unix(1000, 0)

	result := h.Update(weighted(500), nil, now, DefaultWinsorizeFraction)
	assert.True(t, result.Price.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.Confidence.GreaterThan(decimal.Zero))
}

func TestHybrid_EmptyRoundHoldsLastEMAValueWithZeroConfidence(t *testing.T) {
	h := NewHybrid(DefaultEMAWindow)
	now := time.Unix(1000, 0)
	h.Update(weighted(500), nil, now, DefaultWinsorizeFraction)

	result := h.Update(nil, nil, now.Add(time.Minute), DefaultWinsorizeFraction)
	assert.True(t, result.Price.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.Confidence.IsZero())
}

func TestHybrid_SecondRoundBlendsTowardNewMark(t *testing.T) {
	h := NewHybrid(time.Hour)
	now := time.Unix(1000, 0)
	h.Update(weighted(100), nil, now, DefaultWinsorizeFraction)

	result := h.Update(weighted(200), nil, now.Add(time.Hour), DefaultWinsorizeFraction)
	assert.True(t, result.Price.GreaterThan(decimal.NewFromInt(100)))
	assert.True(t, result.Price.LessThan(decimal.NewFromInt(200)))
}
