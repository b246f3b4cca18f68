// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/funnelcast/internal/metrics"
)

// memoryEntry is a stored value with its expiry
type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a thread-safe in-memory Store with per-entry TTL.
//
// Expired entries are dropped lazily on Get and in bulk by Sweep, which the
// cache janitor service calls on a fixed interval.
//
// Example:
//
//	store := cache.NewMemoryStore(5 * time.Minute)
//	_ = store.SetWithTTL(ctx, "funnel:revenue:abc", payload, 30*time.Minute)
//	if data, ok, _ := store.Get(ctx, "funnel:revenue:abc"); ok {
//	    // decode data
//	}
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	closed     bool

	statsMu   sync.Mutex
	hits      int64
	misses    int64
	evictions int64
	lastSweep time.Time

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		lastSweep:  time.Now(),
		now:        time.Now,
	}
}

// Backend returns BackendMemory.
func (c *MemoryStore) Backend() Backend { return BackendMemory }

// Get retrieves a value by key. An expired entry is removed and counted as
// both a miss and an eviction.
func (c *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, false, ErrStoreClosed
	}
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.record(0, 1, 0)
		return nil, false, nil
	}

	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Only delete if it was not overwritten in the meantime
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.record(0, 1, 1)
		metrics.CacheStoreEvictions.WithLabelValues(string(BackendMemory)).Inc()
		return nil, false, nil
	}

	c.record(1, 0, 0)
	return entry.data, true, nil
}

// SetWithTTL stores a copy of value. A non-positive TTL uses the default TTL.
func (c *MemoryStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data := make([]byte, len(value))
	copy(data, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrStoreClosed
	}

	c.entries[key] = memoryEntry{
		data:      data,
		expiresAt: c.now().Add(ttl),
	}
	metrics.CacheStoreEntries.WithLabelValues(string(BackendMemory)).Set(float64(len(c.entries)))
	return nil
}

// Delete removes a specific entry.
func (c *MemoryStore) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if existed {
		c.record(0, 0, 1)
	}
}

// Clear removes all entries.
func (c *MemoryStore) Clear() {
	c.mu.Lock()
	evicted := int64(len(c.entries))
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()

	c.record(0, 0, evicted)
	metrics.CacheStoreEntries.WithLabelValues(string(BackendMemory)).Set(0)
}

// Len returns the number of entries currently held, expired or not.
func (c *MemoryStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *MemoryStore) Sweep(_ context.Context) int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.statsMu.Lock()
	c.evictions += int64(removed)
	c.lastSweep = now
	c.statsMu.Unlock()

	metrics.CacheStoreEntries.WithLabelValues(string(BackendMemory)).Set(float64(size))
	metrics.CacheStoreEvictions.WithLabelValues(string(BackendMemory)).Add(float64(removed))
	return removed
}

// Stats returns a snapshot of store statistics.
func (c *MemoryStore) Stats() Stats {
	entries := int64(c.Len())

	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return Stats{
		Backend:   BackendMemory,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   entries,
		HitRate:   hitRate(c.hits, c.misses),
		LastSweep: c.lastSweep,
	}
}

// Close drops all entries. Further calls return ErrStoreClosed.
func (c *MemoryStore) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = make(map[string]memoryEntry)
	return nil
}

// record updates the hit, miss and eviction counters
func (c *MemoryStore) record(hits, misses, evictions int64) {
	c.statsMu.Lock()
	c.hits += hits
	c.misses += misses
	c.evictions += evictions
	c.statsMu.Unlock()
}
