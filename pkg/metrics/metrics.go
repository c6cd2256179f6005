package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	CompletionsMarked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completions_marked_total",
			Help: "Total number of mark-complete attempts",
		},
		[]string{"status"}, // status: success, conflict, error
	)

	StatsRecomputeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stats_recompute_failures_total",
			Help: "Recomputations that left denormalized habit stats stale",
		},
	)

	StatsRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stats_refresh_duration_seconds",
			Help:    "Duration of the daily full stats refresh",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
)

// RecordHTTPRequestDuration records HTTP request latency.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementCompletionMarked counts a mark-complete attempt by outcome.
func IncrementCompletionMarked(status string) {
	CompletionsMarked.WithLabelValues(status).Inc()
}

// IncrementStatsRecomputeFailure counts a failed stats recomputation.
func IncrementStatsRecomputeFailure() {
	StatsRecomputeFailures.Inc()
}

// RecordStatsRefreshDuration records one daily refresh run.
func RecordStatsRefreshDuration(duration time.Duration) {
	StatsRefreshDuration.Observe(duration.Seconds())
}
