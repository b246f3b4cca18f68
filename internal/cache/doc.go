// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package cache provides the key-value stores behind the date-range cache.

Every store implements Store: opaque byte values with a per-entry TTL.
The range cache serializes its entries itself, so the same JSON payload can
live in process memory, on local disk, or in a shared Valkey server.

# Backends

	memory   TTL map with hit/miss statistics (default)
	lfu      capacity-bounded, evicts the least frequently used entry
	badger   embedded BadgerDB, survives restarts
	valkey   external Valkey/Redis server shared by replicas
	none     caching disabled, every Get misses

Select a backend with NewStore:

	store, err := cache.NewStore(ctx, cache.Config{
	    Backend:    cache.BackendLFU,
	    Capacity:   10000,
	    DefaultTTL: 5 * time.Minute,
	})
	if err != nil {
	    return err
	}
	defer store.Close()

# Optional Interfaces

Stores advertise extra capabilities through small interfaces:

  - StatsReporter: hit/miss/eviction counters for /api/v1/cache/stats
  - Sweeper: periodic housekeeping, driven by the cache janitor service
  - Pinger: liveness of a remote server, used by the readiness probe

# Expiry

Memory and LFU stores drop expired entries lazily on Get and in bulk on
Sweep. Badger and Valkey expire entries natively with one-second
resolution, so sub-second TTLs are rounded up.

# Errors

A store that fails returns an error instead of a miss. Callers in the
range cache log the error, count it, and fall through to the data source;
a broken cache never fails a request.

# Key Conventions

	{layer}:{endpoint}:{start}:{end}              exact range entry
	{layer}:{endpoint}:chunk:{YYYY-MM}            month chunk entry

GenerateKey hashes arbitrary parameters into a short stable suffix for
callers that need keys beyond those two shapes.

# Thread Safety

All stores are safe for concurrent use.
*/
package cache
