// Package mock provides a simulated price source, used in demo mode and as
// the last-resort fallback when no real adapter is available. Its random
// walk draws from the process-wide math/rand source, so the prices it
// emits differ from run to run and are not reproducible.
package mock

import (
	"context"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/server/sources"
)

// walkVariance bounds the per-tick random walk as a fraction of base price.
const walkVariance = 0.03

// Source emits 3-7 synthetic observations per asset per round, each a
// small random walk around the catalog's nominal BasePrice. A single
// Source is shared between the scheduler's ticker goroutine and any
// HTTP-triggered refresh, so walk is guarded by a mutex.
type Source struct {
	*sources.BaseSource

	mu   sync.Mutex
	walk map[string]float64
}

// New creates the mock adapter, seeding its random walk state at each
// asset's nominal catalog price.
func New(logger *logging.Logger) *Source {
	walk := make(map[string]float64, len(catalog.Hardware))
	for _, a := range catalog.Hardware {
		walk[a.ID] = a.BasePrice
	}
	return &Source{
		BaseSource: sources.NewBaseSource("mock", logger),
		walk:       walk,
	}
}

// IsAvailable is always true: the mock source has no external dependency.
func (s *Source) IsAvailable() bool {
	return true
}

// FetchPrices returns a small batch of synthetic observations centered on
// the asset's current random-walk price.
func (s *Source) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	s.mu.Lock()
	base, ok := s.walk[assetID]
	if !ok {
		asset, exists := catalog.GetHardwareAsset(assetID)
		if !exists {
			s.mu.Unlock()
			return nil, sources.NewAdapterError("mock", sources.CodeFetchFailed, "unknown asset "+assetID, nil)
		}
		base = asset.BasePrice
	}

	// Advance the walk by up to +/-walkVariance of the current price.
	delta := base * walkVariance * (rand.Float64()*2 - 1)
	base += delta
	if base < 1 {
		base = 1
	}
	s.walk[assetID] = base
	s.mu.Unlock()

	count := 3 + rand.Intn(5) // 3..7 inclusive
	now := sources.NowMillis()
	observations := make([]domain.Observation, 0, count)
	for i := 0; i < count; i++ {
		jitter := base * 0.01 * (rand.Float64()*2 - 1)
		price := decimal.NewFromFloat(base + jitter).Round(2)
		observations = append(observations, domain.Observation{
			AssetID:   assetID,
			Price:     price,
			Source:    s.Name(),
			Timestamp: now,
			Metadata: &domain.Metadata{
				Condition: domain.ConditionNew,
				Seller:    "simulated-marketplace",
			},
		})
	}

	s.SetHealthy(true)
	return observations, nil
}

func init() {
	sources.Register("mock", func() (sources.Source, error) {
		return New(logging.Global()), nil
	})
}
