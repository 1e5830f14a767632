package illiquid

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEMA_FirstUpdateSeeds(t *testing.T) {
	e := NewEMA(DefaultEMAWindow)
	start := time.Unix(0, 0)

	value := e.Update(decimal.NewFromInt(100), start)
	assert.True(t, value.Equal(decimal.NewFromInt(100)))
	assert.True(t, e.Value().Equal(decimal.NewFromInt(100)))
}

func TestEMA_SecondUpdateMovesTowardMark(t *testing.T) {
	e := NewEMA(DefaultEMAWindow)
	start := time.Unix(0, 0)
	e.Update(decimal.NewFromInt(100), start)

	value := e.Update(decimal.NewFromInt(200), start.Add(time.Hour))
	assert.True(t, value.GreaterThan(decimal.NewFromInt(100)))
	assert.True(t, value.LessThan(decimal.NewFromInt(200)))
}

func TestEMA_ZeroElapsedTimeLeavesValueUnchanged(t *testing.T) {
	e := NewEMA(DefaultEMAWindow)
	start := time.Unix(0, 0)
	e.Update(decimal.NewFromInt(100), start)

	value := e.Update(decimal.NewFromInt(200), start)
	assert.True(t, value.Equal(decimal.NewFromInt(100)))
}

func TestEMA_LongGapConvergesNearMark(t *testing.T) {
	e := NewEMA(time.Hour)
	start := time.Unix(0, 0)
	e.Update(decimal.NewFromInt(100), start)

	value := e.Update(decimal.NewFromInt(200), start.Add(100*time.Hour))
	diff := value.Sub(decimal.NewFromInt(200)).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromFloat(0.01)), "got %s", value.String())
}

func TestBlend_NoExternalReturnsEMAUnchanged(t *testing.T) {
	result := Blend(decimal.NewFromInt(150), decimal.Zero, false, DefaultExternalWeight, DefaultMarkWeight)
	assert.True(t, result.Equal(decimal.NewFromInt(150)))
}

func TestBlend_WithExternalWeighsBothSides(t *testing.T) {
	result := Blend(decimal.NewFromInt(100), decimal.NewFromInt(400), true, DefaultExternalWeight, DefaultMarkWeight)
	// (400 * 1/3) + (100 * 2/3) = 200
	assert.True(t, result.Equal(decimal.NewFromInt(200)), "got %s", result.String())
}
