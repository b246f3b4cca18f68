// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package api provides the HTTP API for funnel metrics on the chi router.

Routes:

	GET /api/v1/health/live         liveness, no dependencies
	GET /api/v1/health/ready        DuckDB ping through admission (system.health)
	GET /api/v1/metrics             metric catalogue
	GET /api/v1/metrics/{name}      ?start=YYYY-MM-DD&end=YYYY-MM-DD
	GET /api/v1/admission/stats     admission controller snapshot
	GET /api/v1/cache/stats         range cache and store counters
	GET /metrics                    Prometheus exposition

Every JSON body uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", ...}}
	{"success": false, "error": {"code": "QUEUE_TIMEOUT", "message": "..."}}

Status mapping for metric requests:

	400 VALIDATION_ERROR    bad dates, end before start, span too long
	404 UNKNOWN_METRIC      name not in the catalogue
	502 COMPUTE_FAILED      data source returned success=false
	503 QUEUE_TIMEOUT       admission queue wait exceeded (Retry-After set)
	503 CIRCUIT_OPEN        database breaker open (Retry-After set)
	504 TIMEOUT             request deadline exceeded

Handlers depend on the MetricsService, AdmissionService and Database
interfaces so tests can substitute fakes.
*/
package api
