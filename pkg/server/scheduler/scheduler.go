// Package scheduler drives the two periodic aggregation loops: hardware
// prices on a short interval, rental offers on a longer one.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/metrics"
)

// Scheduler owns the hardware and rental ticker loops. Both loops are
// served by Run's select loop, so ticks of one loop never overlap; an
// atomic busy flag per loop also turns away a tick that starts while
// another is still running. Firings that fall while a tick runs are not
// queued up: time.Ticker keeps at most one pending firing, which runs as
// soon as the slow tick returns.
type Scheduler struct {
	logger *logging.Logger

	hardwareInterval time.Duration
	rentalInterval   time.Duration
	rentalEnabled    bool

	runHardware func(ctx context.Context)
	runRental   func(ctx context.Context)

	hardwareBusy atomic.Bool
	rentalBusy   atomic.Bool
}

// New builds a Scheduler. runHardware and runRental are the tick bodies;
// rentalEnabled mirrors Config.HistoryConfigured() (the rental loop only
// runs when a history store is configured).
func New(hardwareInterval, rentalInterval time.Duration, rentalEnabled bool, runHardware, runRental func(ctx context.Context), logger *logging.Logger) *Scheduler {
	return &Scheduler{
		logger:           logger,
		hardwareInterval: hardwareInterval,
		rentalInterval:   rentalInterval,
		rentalEnabled:    rentalEnabled,
		runHardware:      runHardware,
		runRental:        runRental,
	}
}

// Run starts both loops, running each once synchronously before entering
// periodic mode, and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.tickHardware(ctx)
	if s.rentalEnabled {
		s.tickRental(ctx)
	}

	hardwareTicker := time.NewTicker(s.hardwareInterval)
	defer hardwareTicker.Stop()

	var rentalTicker *time.Ticker
	var rentalC <-chan time.Time
	if s.rentalEnabled {
		rentalTicker = time.NewTicker(s.rentalInterval)
		defer rentalTicker.Stop()
		rentalC = rentalTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			return
		case <-hardwareTicker.C:
			s.tickHardware(ctx)
		case <-rentalC:
			s.tickRental(ctx)
		}
	}
}

func (s *Scheduler) tickHardware(ctx context.Context) {
	if !s.hardwareBusy.CompareAndSwap(false, true) {
		s.logger.Warn("hardware tick skipped: previous tick still running")
		return
	}
	defer s.hardwareBusy.Store(false)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("hardware tick panicked", "recover", r)
		}
		metrics.RecordSchedulerTick("hardware", time.Since(start))
	}()

	s.runHardware(ctx)
}

func (s *Scheduler) tickRental(ctx context.Context) {
	if !s.rentalBusy.CompareAndSwap(false, true) {
		s.logger.Warn("rental tick skipped: previous tick still running")
		return
	}
	defer s.rentalBusy.Store(false)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("rental tick panicked", "recover", r)
		}
		metrics.RecordSchedulerTick("rental", time.Since(start))
	}()

	s.runRental(ctx)
}
