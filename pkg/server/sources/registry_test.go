package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwp.dev/oracle/pkg/domain"
)

type stubSource struct{ name string }

func (s *stubSource) Name() string      { return s.name }
func (s *stubSource) IsAvailable() bool { return true }
func (s *stubSource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	return nil, nil
}

func TestRegistry_RegisterThenCreate(t *testing.T) {
	Register("test-registry-fixture", func() (Source, error) {
		return &stubSource{name: "test-registry-fixture"}, nil
	})

	src, err := Create("test-registry-fixture")
	require.NoError(t, err)
	assert.Equal(t, "test-registry-fixture", src.Name())
}

func TestRegistry_CreateUnknownReturnsError(t *testing.T) {
	_, err := Create("definitely-not-registered")
	assert.Error(t, err)
}

func TestRegistry_ListIncludesRegistered(t *testing.T) {
	Register("test-registry-list-fixture", func() (Source, error) {
		return &stubSource{name: "test-registry-list-fixture"}, nil
	})

	names := List()
	assert.Contains(t, names, "test-registry-list-fixture")
}
