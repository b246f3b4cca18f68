// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

// Package database provides the DuckDB data source behind the funnel metrics.
//
// # Overview
//
// The package owns a single table, booking_events, holding one row per
// funnel event (search, hotel_view, checkout, booking). Every metric query
// takes an inclusive day range and returns a models.Result, which makes the
// query methods usable directly as range cache compute functions.
//
// # Files
//
//   - database.go: lifecycle (open, schema initialization, checkpoint on close)
//   - database_schema.go: table and index creation
//   - database_connection.go: pool settings and error classification
//   - breaker.go: gobreaker circuit breaker wrapped around every query
//   - funnel_queries.go: scalar, daily and breakdown metric queries
//   - events.go: transactional event insertion
//   - seed.go: deterministic mock funnel for development
//
// # Range Bounds
//
// Day ranges are converted to the half-open interval [start, end+1day) in UTC,
// so the end day is always fully included. Daily series report one point per
// day of the range; days without events are reported as zero.
//
// # Circuit Breaker
//
// Queries run through a sony/gobreaker/v2 breaker that opens when at least 60%
// of 10 or more requests fail within the configured interval. Rejected queries
// return ErrCircuitOpen. A canceled caller does not count as a failure.
// Ping bypasses the breaker so readiness reflects the database itself.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	result, err := db.Revenue(ctx, start, end)
//
// # Thread Safety
//
// DB is safe for concurrent use. Concurrency is bounded upstream by the
// admission controller rather than by the connection pool.
package database
