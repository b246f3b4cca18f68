// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package rangecache caches date-range results in calendar month chunks.

Dashboards ask for overlapping ranges ("last 90 days", "this quarter",
"Jan 15 to Mar 10"). Caching only exact ranges would miss on every small
change, so each computed result is stored twice over:

  - once under the exact range key, the fastest path for repeated requests
  - once per calendar month the range touches, tagged with the part of the
    month the range covered

# Lookup

	1. exact key hit          return it
	2. every month chunk hit  assemble from chunks, no backend call
	3. otherwise              compute the whole range once, write back

Assembly does not sum chunk values. A chunk holds the whole result of an
earlier range, so a scalar takes the most recently cached chunk (marked
aggregated=false) and a series takes the chunk overlapping the request the
most (aggregated=true).

# TTLs

CalculateTTL gives each entry a lifetime from its own span. Ranges that
ended more than a week ago are treated as settled history:

	ended > 7 days ago, span > 30 days   24h
	ended > 7 days ago                   12h
	span <= 1 day                        5m
	span <= 7 days                       15m
	span <= 30 days                      30m
	otherwise                            60m

# Failure Handling

Failed computes are returned to the caller and never written. Store
errors are logged, counted, and treated as misses. Concurrent misses for
the same exact range share one compute through singleflight.

# Keys

	funnel:revenue:2025-01-15:2025-03-10
	funnel:revenue:chunk:2025-02

Extra parameters are sorted and hashed onto the end of both shapes.
*/
package rangecache
