// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the modbridge serving endpoint.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts all HTTP requests by method, status class, and path.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modbridge_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status", "path"},
	)

	// RequestDuration records HTTP request duration in seconds by method and path.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modbridge_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// StreamingConnections tracks the number of active SSE connections.
	// Streamable HTTP MCP sessions hold one of these open per client.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modbridge_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// InvocationsTotal counts module invocations by module ID and outcome.
	InvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modbridge_invocations_total",
			Help: "Module invocations",
		},
		[]string{"module", "status"},
	)

	// InvocationDuration records module invocation duration in seconds.
	InvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modbridge_invocation_duration_seconds",
			Help:    "Module invocation duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"module"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		InvocationsTotal,
		InvocationDuration,
	)
}
