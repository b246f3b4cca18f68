// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package main is the entry point for the funnelcast server.

Funnelcast serves hotel booking funnel metrics (visitors, bookings, revenue,
conversion, funnel stages, top hotels) from a DuckDB event table. Responses
are cached per calendar month so overlapping date ranges reuse earlier work,
and every backend query passes through a priority admission controller.

Initialization order:

 1. Configuration: koanf defaults, optional YAML file, environment
 2. Logging: zerolog
 3. Cache store: memory, lfu, badger, valkey or none
 4. Admission controller
 5. Database: DuckDB with optional deterministic mock data
 6. Range cache and metric facade
 7. HTTP router (chi)
 8. Supervisor tree: history pruner, cache janitor, HTTP server

SIGINT and SIGTERM cancel the root context; the supervisor shuts the HTTP
server down gracefully and the store and database are closed on return.

Example:

	export SEED_MOCK_DATA=true
	export CACHE_BACKEND=lfu
	./funnelcast
	curl 'localhost:3860/api/v1/metrics/conversion_rate?start=2025-01-15&end=2025-03-10'
*/
package main
