// Package metrics provides Prometheus metrics for the tool server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeassist_tool_calls_total",
			Help: "Total number of tool calls by outcome",
		},
		[]string{"tool", "outcome"},
	)

	toolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeassist_tool_call_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	filesScannedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeassist_files_scanned_total",
			Help: "Files visited by local traversal operations",
		},
		[]string{"operation"},
	)

	remoteBackend = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "codeassist_remote_backend",
			Help: "Selected remote backend (1) per backend name",
		},
		[]string{"backend"},
	)
)

// RecordToolCall records one tool invocation. outcome is "success" or the
// failure kind.
func RecordToolCall(tool, outcome string, d time.Duration) {
	toolCallsTotal.WithLabelValues(tool, outcome).Inc()
	toolCallDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// AddFilesScanned counts files visited by a traversal operation.
func AddFilesScanned(operation string, n int) {
	filesScannedTotal.WithLabelValues(operation).Add(float64(n))
}

// SetRemoteBackend marks the backend chosen by detection. "" means none.
func SetRemoteBackend(name string) {
	if name == "" {
		name = "none"
	}
	remoteBackend.WithLabelValues(name).Set(1)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
