// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemirror_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastemirror_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Mirror Metrics
	MirrorClarity = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tastemirror_mirror_clarity",
			Help:    "Clarity percentage of generated taste mirrors",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// Daily Recommendation Cache Metrics
	DailyCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemirror_daily_cache_hits_total",
			Help: "Recommendation requests served from the day cache",
		},
	)

	DailyCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemirror_daily_cache_misses_total",
			Help: "Recommendation requests that required an upstream fetch",
		},
	)

	DailyFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemirror_daily_fetch_failures_total",
			Help: "Recommendation fetches that failed and were not cached",
		},
		[]string{"reason"}, // "transport", "unsuccessful"
	)

	DailyCacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemirror_daily_cache_write_errors_total",
			Help: "Failed writes to the day cache",
		},
	)

	// Badge Metrics
	BadgeUnlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemirror_badge_unlocks_total",
			Help: "Badge locked-to-unlocked transitions",
		},
		[]string{"badge"},
	)

	BadgeWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemirror_badge_write_errors_total",
			Help: "Failed badge document merges (in-memory state kept)",
		},
		[]string{"badge"},
	)

	BadgeReadErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemirror_badge_read_errors_total",
			Help: "Failed badge document reads (defaults used)",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tastemirror_active_sessions",
			Help: "Session contexts currently held in memory",
		},
	)

	// Upstream Client Metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastemirror_upstream_request_duration_seconds",
			Help:    "Upstream recommendation service latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"endpoint"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemirror_upstream_requests_total",
			Help: "Upstream requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: "success", "error", "unsuccessful"
	)

	DetailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemirror_detail_cache_hits_total",
			Help: "Item detail lookups served from the TTL cache",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tastemirror_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemirror_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemirror_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Storage Metrics
	StorageGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemirror_storage_gc_runs_total",
			Help: "Badger value-log GC runs by result",
		},
		[]string{"result"}, // "rewritten", "noop", "error"
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMirror records the clarity of a generated mirror.
func RecordMirror(clarity int) {
	MirrorClarity.Observe(float64(clarity))
}

// RecordDailyCache records a day cache lookup.
func RecordDailyCache(hit bool) {
	if hit {
		DailyCacheHits.Inc()
		return
	}
	DailyCacheMisses.Inc()
}

// RecordBadgeUnlock counts an unlock transition.
func RecordBadgeUnlock(badge string) {
	BadgeUnlocks.WithLabelValues(badge).Inc()
}

// RecordBadgeWriteError counts a failed badge merge.
func RecordBadgeWriteError(badge string) {
	BadgeWriteErrors.WithLabelValues(badge).Inc()
}

// RecordUpstreamRequest records one upstream call.
func RecordUpstreamRequest(endpoint, outcome string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
