// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for:
// - DuckDB query performance and the circuit breaker in front of it
// - API endpoint latency and throughput
// - Admission controller load, queues and waits
// - Range cache outcomes and key-value store health

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBEventsSeeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duckdb_events_seeded_total",
			Help: "Total number of mock booking events inserted at startup",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Admission Controller Metrics
	AdmissionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admission_active_operations",
			Help: "Current number of admitted backend operations",
		},
	)

	AdmissionMaxConcurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admission_max_concurrent",
			Help: "Configured ceiling on concurrent backend operations",
		},
	)

	AdmissionLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admission_scaling_level",
			Help: "Current scaling level (0=green, 1=yellow, 2=orange, 3=red)",
		},
	)

	AdmissionQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admission_queue_depth",
			Help: "Number of operations waiting for admission",
		},
		[]string{"priority"},
	)

	AdmissionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_operations_total",
			Help: "Total number of operations entering admission",
		},
		[]string{"priority", "path"}, // path: "immediate", "queued"
	)

	AdmissionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admission_operation_errors_total",
			Help: "Total number of admitted operations that reported failure",
		},
	)

	AdmissionWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admission_queue_wait_seconds",
			Help:    "Time operations spent queued before release",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"priority"},
	)

	AdmissionOperationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "admission_operation_duration_seconds",
			Help:    "Duration of admitted backend operations",
			Buckets: prometheus.DefBuckets,
		},
	)

	AdmissionExhaustion = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admission_pool_exhaustion_total",
			Help: "Total number of times an operation found the pool at its ceiling after release",
		},
	)

	AdmissionQueueTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_queue_timeouts_total",
			Help: "Total number of queued operations abandoned on deadline or cancellation",
		},
		[]string{"priority"},
	)

	// Range Cache Metrics
	RangeCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "range_cache_lookups_total",
			Help: "Range cache lookups by outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: "exact_hit", "chunk_hit", "partial_miss", "full_miss"
	)

	RangeCacheComputeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "range_cache_compute_failures_total",
			Help: "Total number of data source computations that failed and were not cached",
		},
		[]string{"endpoint"},
	)

	RangeCacheEntriesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "range_cache_entries_written_total",
			Help: "Total number of entries written to the key-value store",
		},
		[]string{"kind"}, // kind: "chunk", "exact"
	)

	RangeCacheCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "range_cache_coalesced_total",
			Help: "Total number of misses that shared an in-flight computation",
		},
	)

	CacheStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_store_errors_total",
			Help: "Total number of key-value store errors treated as misses",
		},
		[]string{"backend", "operation"},
	)

	CacheStoreEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_store_entries",
			Help: "Current number of entries held by an in-process store",
		},
		[]string{"backend"},
	)

	CacheStoreEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_store_evictions_total",
			Help: "Total number of entries evicted or expired by an in-process store",
		},
		[]string{"backend"},
	)

	// Funnel Metric Requests
	FunnelMetricRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_metric_requests_total",
			Help: "Total number of funnel metric requests by result",
		},
		[]string{"metric", "result"}, // result: "success", "failure", "error"
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAdmissionEntry records an operation entering admission.
func RecordAdmissionEntry(priority string, queued bool) {
	path := "immediate"
	if queued {
		path = "queued"
	}
	AdmissionOperations.WithLabelValues(priority, path).Inc()
}

// RecordAdmissionRelease records how long a queued operation waited.
func RecordAdmissionRelease(priority string, wait time.Duration) {
	AdmissionWaitDuration.WithLabelValues(priority).Observe(wait.Seconds())
}

// RecordAdmissionCompletion records the end of an admitted operation.
func RecordAdmissionCompletion(duration time.Duration, success bool) {
	AdmissionOperationDuration.Observe(duration.Seconds())
	if !success {
		AdmissionErrors.Inc()
	}
}

// RecordAdmissionTimeout records a queued operation abandoned before release.
func RecordAdmissionTimeout(priority string) {
	AdmissionQueueTimeouts.WithLabelValues(priority).Inc()
}

// UpdateAdmissionGauges publishes the controller's current load.
func UpdateAdmissionGauges(active, level int, depth map[string]int) {
	AdmissionActive.Set(float64(active))
	AdmissionLevel.Set(float64(level))
	for priority, n := range depth {
		AdmissionQueueDepth.WithLabelValues(priority).Set(float64(n))
	}
}

// RecordRangeCacheLookup records the outcome of a range cache lookup.
func RecordRangeCacheLookup(endpoint, outcome string) {
	RangeCacheLookups.WithLabelValues(endpoint, outcome).Inc()
}

// RecordRangeCacheWrite records entries written after a successful compute.
func RecordRangeCacheWrite(chunks int) {
	RangeCacheEntriesWritten.WithLabelValues("chunk").Add(float64(chunks))
	RangeCacheEntriesWritten.WithLabelValues("exact").Inc()
}

// RecordCacheStoreError records a key-value store failure that was bypassed.
func RecordCacheStoreError(backend, operation string) {
	CacheStoreErrors.WithLabelValues(backend, operation).Inc()
}

// RecordFunnelMetric records a facade request outcome.
func RecordFunnelMetric(metric, result string) {
	FunnelMetricRequests.WithLabelValues(metric, result).Inc()
}
