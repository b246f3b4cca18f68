// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto at
package load and exposed on /metrics by the API router:

	curl http://localhost:3860/metrics

# Available Metrics

Database:
  - duckdb_query_duration_seconds{operation,table} (histogram)
  - duckdb_query_errors_total{operation,table,error_type} (counter)
  - duckdb_events_seeded_total (counter)
  - circuit_breaker_state{name}, circuit_breaker_requests_total{name,result},
    circuit_breaker_state_transitions_total{name,from_state,to_state}

API:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests, api_rate_limit_hits_total{endpoint}

Admission controller:
  - admission_active_operations, admission_max_concurrent, admission_scaling_level
  - admission_queue_depth{priority}
  - admission_operations_total{priority,path}
  - admission_queue_wait_seconds{priority}, admission_operation_duration_seconds
  - admission_pool_exhaustion_total, admission_queue_timeouts_total{priority}
  - admission_operation_errors_total

Range cache and key-value store:
  - range_cache_lookups_total{endpoint,outcome}
  - range_cache_compute_failures_total{endpoint}
  - range_cache_entries_written_total{kind}
  - range_cache_coalesced_total
  - cache_store_errors_total{backend,operation}
  - cache_store_entries{backend}, cache_store_evictions_total{backend}

Facade:
  - funnel_metric_requests_total{metric,result}

# Usage

	start := time.Now()
	rows, err := db.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "booking_events", time.Since(start), err)
*/
package metrics
