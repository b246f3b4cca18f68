// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package models defines data structures shared across Funnelcast.

Key Components:

  - Result: the payload every metric computation produces, cached by the
    range cache and returned by the metrics facade
  - Point: one labelled value of a chart series
  - ChunkInfo: month-chunk span and write time attached to cached results
  - BookingEvent: one row of the booking_events table
  - MetricInfo: catalogue entry listed by the API

Results are serialized with goccy/go-json both on the wire and inside the
key-value store.
*/
package models
