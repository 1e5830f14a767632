package sources

import (
	"sync"
	"time"

	"hwp.dev/oracle/pkg/logging"
)

// BaseSource provides the bookkeeping every concrete adapter needs:
// a name, a logger scoped to that name, and a health flag flipped by the
// adapter's own fetch logic. Generalized from the teacher's BaseSource,
// which additionally cached live prices for a running subscription — this
// domain's adapters are stateless request/response per round, so only the
// identity and health bookkeeping survive.
type BaseSource struct {
	name    string
	logger  *logging.Logger
	mu      sync.RWMutex
	healthy bool
}

// NewBaseSource creates a BaseSource bound to name, with a logger scoped
// under that adapter's name.
func NewBaseSource(name string, logger *logging.Logger) *BaseSource {
	return &BaseSource{
		name:    name,
		logger:  logger.With("adapter", name),
		healthy: true,
	}
}

// Name returns the adapter's stable identifier.
func (b *BaseSource) Name() string {
	return b.name
}

// Logger returns the adapter-scoped logger.
func (b *BaseSource) Logger() *logging.Logger {
	return b.logger
}

// SetHealthy records the adapter's health status after a fetch attempt.
func (b *BaseSource) SetHealthy(healthy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthy = healthy
}

// Healthy reports the adapter's last recorded health status.
func (b *BaseSource) Healthy() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.healthy
}

// NowMillis is a small convenience re-export so adapters don't need to
// import time directly just to stamp an observation.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
