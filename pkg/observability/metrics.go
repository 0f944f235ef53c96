// Package observability provides Prometheus metrics for the chatwire client.
// Metrics are registered in the default registry at init; embedding programs
// expose them through their own /metrics endpoint.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts client calls by operation (complete/stream),
	// outcome (ok or the error kind), and model.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwire_requests_total",
			Help: "Chat completion requests",
		},
		[]string{"operation", "outcome", "model"},
	)

	// RequestDuration records the full request duration in seconds. For
	// streaming calls this spans from dispatch to stream termination.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatwire_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"operation", "model"},
	)

	// ActiveStreams tracks the number of SSE streams currently open.
	ActiveStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatwire_streams_active",
			Help: "Active SSE streams",
		},
	)

	// StreamChunksTotal counts successfully decoded streaming deltas.
	StreamChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatwire_stream_chunks_total",
			Help: "Decoded streaming chunks",
		},
	)

	// TokensTotal counts tokens reported in usage blocks by direction
	// (prompt/completion).
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwire_tokens_total",
			Help: "Token count",
		},
		[]string{"model", "direction"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ActiveStreams,
		StreamChunksTotal,
		TokensTotal,
	)
}
