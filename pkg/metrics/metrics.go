// Package metrics provides Prometheus metrics for the price oracle.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ObservationsTotal is a counter of observations accepted from adapters.
	ObservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_observations_total",
			Help: "Total number of observations accepted from adapters",
		},
		[]string{"adapter", "assetId"},
	)

	// AdapterErrorsTotal is a counter of adapter fetch failures by error code.
	AdapterErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_adapter_errors_total",
			Help: "Total number of adapter fetch failures",
		},
		[]string{"adapter", "code"},
	)

	// RoundDuration is a histogram of updatePrice round durations.
	RoundDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_round_duration_seconds",
			Help:    "Duration of a single updatePrice round",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"assetId"},
	)

	// OutlierRejectionsTotal is a counter of observations rejected as outliers.
	OutlierRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_outlier_rejections_total",
			Help: "Total number of observations rejected by the outlier filter",
		},
		[]string{"assetId"},
	)

	// AdapterHealth is a gauge of adapter availability (1=available, 0=not).
	AdapterHealth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oracle_adapter_health",
			Help: "Availability of a source adapter (1=available, 0=unavailable)",
		},
		[]string{"adapter"},
	)

	// PriceChangesTotal counts rounds that produced a material price change.
	PriceChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_price_changes_total",
			Help: "Total number of rounds whose fused price changed beyond the threshold",
		},
		[]string{"assetId"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)

	// SchedulerTickDuration is a histogram of scheduler tick durations.
	SchedulerTickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_scheduler_tick_duration_seconds",
			Help:    "Duration of a scheduler tick across the whole catalog",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"loop"},
	)

	// HistoryWriteErrorsTotal counts history-store insert failures (swallowed).
	HistoryWriteErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_history_write_errors_total",
			Help: "Total number of history store write failures",
		},
		[]string{"series"},
	)
)

// Init registers all metrics on the default Prometheus registry.
func Init() {
	prometheus.MustRegister(
		ObservationsTotal,
		AdapterErrorsTotal,
		RoundDuration,
		OutlierRejectionsTotal,
		AdapterHealth,
		PriceChangesTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SchedulerTickDuration,
		HistoryWriteErrorsTotal,
	)
}

// Serve starts a dedicated /metrics HTTP server and blocks until ctx is
// cancelled, at which point it shuts down gracefully.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// RecordObservations records count observations accepted from an adapter.
func RecordObservations(adapter, assetID string, count int) {
	ObservationsTotal.WithLabelValues(adapter, assetID).Add(float64(count))
}

// RecordAdapterError records an adapter failure.
func RecordAdapterError(adapter, code string) {
	AdapterErrorsTotal.WithLabelValues(adapter, code).Inc()
}

// RecordRound records the duration of one updatePrice round.
func RecordRound(assetID string, d time.Duration) {
	RoundDuration.WithLabelValues(assetID).Observe(d.Seconds())
}

// RecordOutlierRejection records count outlier rejections for an asset.
func RecordOutlierRejection(assetID string, count int) {
	OutlierRejectionsTotal.WithLabelValues(assetID).Add(float64(count))
}

// RecordAdapterHealth records the availability of an adapter.
func RecordAdapterHealth(adapter string, available bool) {
	val := 0.0
	if available {
		val = 1.0
	}
	AdapterHealth.WithLabelValues(adapter).Set(val)
}

// RecordPriceChange records that a round's fused price changed beyond the
// configured threshold.
func RecordPriceChange(assetID string) {
	PriceChangesTotal.WithLabelValues(assetID).Inc()
}

// RecordHTTPRequest records an HTTP request outcome.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordSchedulerTick records the duration of a full scheduler tick.
func RecordSchedulerTick(loop string, d time.Duration) {
	SchedulerTickDuration.WithLabelValues(loop).Observe(d.Seconds())
}

// RecordHistoryWriteError records a swallowed history-store write failure.
func RecordHistoryWriteError(series string) {
	HistoryWriteErrorsTotal.WithLabelValues(series).Inc()
}
