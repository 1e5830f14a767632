package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hwp.dev/oracle/pkg/logging"
)

func TestScheduler_RunsHardwareOnceSynchronouslyBeforeTickerFires(t *testing.T) {
	var hardwareCalls atomic.Int32
	runHardware := func(ctx context.Context) { hardwareCalls.Add(1) }
	runRental := func(ctx context.Context) {}

	s := New(time.Hour, time.Hour, false, runHardware, runRental, logging.NewNoopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.Equal(t, int32(1), hardwareCalls.Load())
}

func TestScheduler_SkipsRentalLoopWhenDisabled(t *testing.T) {
	var rentalCalls atomic.Int32
	runHardware := func(ctx context.Context) {}
	runRental := func(ctx context.Context) { rentalCalls.Add(1) }

	s := New(time.Hour, time.Millisecond, false, runHardware, runRental, logging.NewNoopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.Equal(t, int32(0), rentalCalls.Load())
}

func TestScheduler_RunsRentalOnceSynchronouslyWhenEnabled(t *testing.T) {
	var rentalCalls atomic.Int32
	runHardware := func(ctx context.Context) {}
	runRental := func(ctx context.Context) { rentalCalls.Add(1) }

	s := New(time.Hour, time.Hour, true, runHardware, runRental, logging.NewNoopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.Equal(t, int32(1), rentalCalls.Load())
}

func TestScheduler_OverlappingTickIsSkippedNotQueued(t *testing.T) {
	release := make(chan struct{})
	var hardwareCalls atomic.Int32
	runHardware := func(ctx context.Context) {
		hardwareCalls.Add(1)
		<-release
	}
	runRental := func(ctx context.Context) {}

	s := New(5*time.Millisecond, time.Hour, false, runHardware, runRental, logging.NewNoopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	close(release)
	<-done

	// The first (synchronous) tick stays blocked on release until after ctx
	// has expired, so the run must end without any catch-up tick for the
	// intervals the slow tick spanned.
	assert.Equal(t, int32(1), hardwareCalls.Load())
}
