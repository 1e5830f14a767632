package sources

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsRelevantListing_BelowPriceFloorIsRejected(t *testing.T) {
	ok := IsRelevantListing("GPU_RTX4090", "NVIDIA GeForce RTX 4090 Founders Edition", decimal.NewFromInt(10))
	assert.False(t, ok)
}

func TestIsRelevantListing_AccessoryTitleIsRejected(t *testing.T) {
	ok := IsRelevantListing("GPU_RTX4090", "RTX 4090 Power Cable Adapter", decimal.NewFromInt(1500))
	assert.False(t, ok)
}

func TestIsRelevantListing_UnknownAssetIsRejected(t *testing.T) {
	ok := IsRelevantListing("NOT_A_REAL_ASSET", "RTX 4090", decimal.NewFromInt(1500))
	assert.False(t, ok)
}

func TestIsRelevantListing_MatchingTitleIsAccepted(t *testing.T) {
	ok := IsRelevantListing("GPU_RTX4090", "NVIDIA GeForce RTX 4090 Founders Edition 24GB", decimal.NewFromInt(1599))
	assert.True(t, ok)
}

func TestIsRelevantListing_TitleWithoutSearchTermIsRejected(t *testing.T) {
	ok := IsRelevantListing("GPU_RTX4090", "NVIDIA GeForce RTX 3090 Ti", decimal.NewFromInt(1500))
	assert.False(t, ok)
}

func TestIsRelevantListing_CaseInsensitiveMatch(t *testing.T) {
	ok := IsRelevantListing("GPU_RTX4090", "nvidia rtx 4090 gaming card", decimal.NewFromInt(1500))
	assert.True(t, ok)
}
