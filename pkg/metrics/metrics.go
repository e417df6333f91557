// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks API request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "council_request_duration_seconds",
			Help:    "Council API request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total API requests issued.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_requests_total",
			Help: "Total council API requests",
		},
		[]string{"method", "path", "status"},
	)

	// FramesDecoded tracks decoded SSE frames.
	FramesDecoded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "council_sse_frames_decoded_total",
			Help: "Total SSE frames decoded from turn streams",
		},
	)

	// FrameDecodeErrors tracks malformed SSE frames that were skipped.
	FrameDecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "council_sse_frame_decode_errors_total",
			Help: "Total malformed SSE frames skipped",
		},
	)

	// EventsRouted tracks routed stream events by type.
	EventsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_stream_events_total",
			Help: "Total stream events routed, by event type",
		},
		[]string{"type"},
	)

	// TurnsTotal tracks completed turns by mode and outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_turns_total",
			Help: "Total turns completed",
		},
		[]string{"mode", "status"},
	)

	// TurnCost tracks server-reported turn cost in dollars.
	TurnCost = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "council_turn_cost_dollars",
			Help:    "Server-reported cost per turn in dollars",
			Buckets: []float64{.0001, .001, .01, .05, .1, .5, 1, 5},
		},
	)

	// StreamsActive tracks turn streams currently being consumed.
	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "council_streams_active",
			Help: "Number of turn streams currently open",
		},
	)

	// UploadBytes tracks bytes uploaded for text extraction.
	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "council_upload_bytes_total",
			Help: "Total bytes uploaded for extraction",
		},
	)

	// UploadsTotal tracks uploads by outcome.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_uploads_total",
			Help: "Total file uploads",
		},
		[]string{"status"},
	)

	// EstimatesTotal tracks cost estimator invocations by outcome.
	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_cost_estimates_total",
			Help: "Total cost estimates computed",
		},
		[]string{"mode"},
	)
)

// RecordRequest records metrics for an API request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTurn records a finished turn and its server-reported cost.
func RecordTurn(mode, status string, cost float64) {
	TurnsTotal.WithLabelValues(mode, status).Inc()
	if cost > 0 {
		TurnCost.Observe(cost)
	}
}
