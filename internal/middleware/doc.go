// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package middleware provides HTTP middleware for the chi router.

Key Components:

  - RequestID: UUID request IDs, echoed in X-Request-ID and attached to the
    logging context together with a correlation ID
  - PrometheusMetrics: request count, duration and in-flight instrumentation
    labelled by chi route pattern

Both use the func(http.Handler) http.Handler shape expected by chi.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

PrometheusMetrics reads the route pattern after the handler returns, so it must
be registered on the router itself rather than wrapped around it.
*/
package middleware
