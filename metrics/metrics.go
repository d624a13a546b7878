// Package metrics exposes the Prometheus instrumentation for the Session
// Loop and its Request Drivers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionState is 0=Probing, 1=CurrentFetch, 2=Streaming, 3=Backoff, 4=Stopped.
	SessionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mtconnect_session_state",
		Help: "Current Session Loop state (0=Probing,1=CurrentFetch,2=Streaming,3=Backoff,4=Stopped)",
	})

	// SampleWindowSize tracks the current SequenceRange width (To-From).
	SampleWindowSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mtconnect_sample_window_size",
		Help: "Width of the current sample request window (To-From)",
	})

	// SampleWindowFrom tracks the current SequenceRange.From.
	SampleWindowFrom = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mtconnect_sample_window_from",
		Help: "Current SequenceRange.From",
	})

	// RequestsTotal counts completed Request Driver calls by endpoint and outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtconnect_requests_total",
		Help: "Total number of requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	// RequestDurationSeconds observes Request Driver latency by endpoint.
	RequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mtconnect_request_duration_seconds",
		Help:    "Request Driver latency by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// ReconnectionsTotal counts sample-stream reconnections.
	ReconnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mtconnect_reconnections_total",
		Help: "Total number of sample-stream reconnections",
	})

	// InstanceChangesTotal counts detected agent instance-id changes.
	InstanceChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mtconnect_instance_changes_total",
		Help: "Total number of detected agent instance-id changes",
	})

	// CircuitBreakerState tracks breaker state per endpoint: 0=closed, 1=open, 2=half-open.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mtconnect_circuit_breaker_state",
		Help: "Current circuit breaker state by endpoint (0=closed,1=open,2=half-open)",
	}, []string{"endpoint"})

	// CircuitBreakerTripsTotal counts breaker transitions to OPEN, by endpoint.
	CircuitBreakerTripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtconnect_circuit_breaker_trips_total",
		Help: "Total number of times a circuit breaker transitioned to OPEN",
	}, []string{"endpoint"})

	// AssetFetchesTotal counts asset refreshes triggered by the Asset Change Tracker.
	AssetFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mtconnect_asset_fetches_total",
		Help: "Total number of asset fetches triggered by AssetChanged data items",
	})
)

// SetCircuitBreakerState updates the circuit breaker state metric.
// state should be one of: "CLOSED" (0), "OPEN" (1), "HALF-OPEN" (2).
func SetCircuitBreakerState(endpoint, state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	CircuitBreakerState.WithLabelValues(endpoint).Set(value)
}

// RecordCircuitBreakerTrip increments the circuit breaker trip counter for an endpoint.
func RecordCircuitBreakerTrip(endpoint string) {
	CircuitBreakerTripsTotal.WithLabelValues(endpoint).Inc()
}

// RecordRequest increments the request counter for an endpoint/outcome pair.
func RecordRequest(endpoint, outcome string) {
	RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordReconnection increments the reconnection counter.
func RecordReconnection() {
	ReconnectionsTotal.Inc()
}

// RecordInstanceChange increments the instance-change counter.
func RecordInstanceChange() {
	InstanceChangesTotal.Inc()
}

// RecordAssetFetch increments the asset-fetch counter.
func RecordAssetFetch() {
	AssetFetchesTotal.Inc()
}

// SetSampleWindow sets the sample window gauges from a sequence range.
func SetSampleWindow(from, to int64) {
	SampleWindowFrom.Set(float64(from))
	SampleWindowSize.Set(float64(to - from))
}

// SetSessionState sets the session state gauge, keyed by an int encoding
// owned by the session package (Probing=0 .. Stopped=4).
func SetSessionState(state int) {
	SessionState.Set(float64(state))
}
