package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hwp.dev/oracle/pkg/logging"
)

func TestBaseSource_StartsHealthy(t *testing.T) {
	b := NewBaseSource("ebay", logging.NewNoopLogger())
	assert.Equal(t, "ebay", b.Name())
	assert.True(t, b.Healthy())
}

func TestBaseSource_SetHealthyTogglesState(t *testing.T) {
	b := NewBaseSource("ebay", logging.NewNoopLogger())
	b.SetHealthy(false)
	assert.False(t, b.Healthy())

	b.SetHealthy(true)
	assert.True(t, b.Healthy())
}

func TestDisplayName_KnownAdapterMapsToHumanName(t *testing.T) {
	assert.Equal(t, "eBay", DisplayName("ebay"))
}

func TestDisplayName_UnknownAdapterPassesThrough(t *testing.T) {
	assert.Equal(t, "some-unlisted-adapter", DisplayName("some-unlisted-adapter"))
}
