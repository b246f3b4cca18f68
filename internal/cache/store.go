// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Store is the key-value store the range cache writes to.
// Values are opaque bytes; expiry is owned by the store.
//
// Implementations must be safe for concurrent use. A store that cannot be
// reached returns an error, which callers treat as a miss.
type Store interface {
	// Get returns the value and true when the key exists and has not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// SetWithTTL stores value under key, overwriting any previous value.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases resources held by the store.
	Close() error
}

// StatsReporter is implemented by stores that track their own statistics.
type StatsReporter interface {
	Stats() Stats
}

// Sweeper is implemented by stores that need periodic housekeeping
// (expired-entry removal, value log GC). Sweep returns the number of
// entries or segments reclaimed.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Pinger is implemented by stores backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend identifies a Store implementation.
type Backend string

const (
	// BackendMemory is a TTL map with hit/miss statistics (default).
	BackendMemory Backend = "memory"

	// BackendLFU is a capacity-bounded least-frequently-used memory store.
	// Best for: dashboards that hammer a few popular ranges.
	BackendLFU Backend = "lfu"

	// BackendBadger is an embedded persistent store that survives restarts.
	BackendBadger Backend = "badger"

	// BackendValkey is an external Valkey/Redis store shared between replicas.
	BackendValkey Backend = "valkey"

	// BackendNone disables caching: every Get misses.
	BackendNone Backend = "none"
)

// Stats is a snapshot of store statistics.
type Stats struct {
	Backend   Backend   `json:"backend"`
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	Errors    int64     `json:"errors"`
	Evictions int64     `json:"evictions"`
	Entries   int64     `json:"entries"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	HitRate   float64   `json:"hit_rate"`
	LastSweep time.Time `json:"last_sweep,omitempty"`
}

// hitRate returns hits as a percentage of lookups.
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

var (
	// ErrUnknownBackend is returned by NewStore for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("cache store is closed")
)

// Config holds configuration for creating a Store.
type Config struct {
	// Backend selects the implementation
	Backend Backend

	// DefaultTTL applies when SetWithTTL is called with a non-positive TTL
	DefaultTTL time.Duration

	// Capacity is the maximum number of entries (LFU only)
	Capacity int

	// BadgerPath is the data directory for the badger backend
	BadgerPath string

	// BadgerInMemory runs badger without touching disk
	BadgerInMemory bool

	// Valkey connection settings
	ValkeyAddress  string
	ValkeyPassword string
	ValkeyDB       int
}

// NewStore creates a store based on the configuration.
//
// Example:
//
//	store, err := cache.NewStore(ctx, cache.Config{Backend: cache.BackendMemory, DefaultTTL: 5 * time.Minute})
//
//	store, err := cache.NewStore(ctx, cache.Config{Backend: cache.BackendValkey, ValkeyAddress: "valkey:6379"})
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}

	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(cfg.DefaultTTL), nil
	case BackendLFU:
		return NewLFUStore(cfg.Capacity, cfg.DefaultTTL), nil
	case BackendBadger:
		bs, err := OpenBadgerStore(cfg.BadgerPath, cfg.BadgerInMemory, cfg.DefaultTTL)
		if err != nil {
			return nil, err
		}
		return bs, nil
	case BackendValkey:
		vs, err := NewValkeyStore(ctx, ValkeyOptions{
			Address:    cfg.ValkeyAddress,
			Password:   cfg.ValkeyPassword,
			DB:         cfg.ValkeyDB,
			DefaultTTL: cfg.DefaultTTL,
		})
		if err != nil {
			return nil, err
		}
		return vs, nil
	case BackendNone:
		return NoopStore{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// BackendOf returns the backend name of a store, or "custom" for stores
// created outside this package.
func BackendOf(s Store) Backend {
	if d, ok := s.(interface{ Backend() Backend }); ok {
		return d.Backend()
	}
	return "custom"
}

// GenerateKey creates a cache key from a prefix and parameters.
// Parameters are serialized to JSON and hashed so keys stay short and stable.
func GenerateKey(prefix string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", prefix, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", prefix, hash[:16])
}

// Verify interface implementations at compile time
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*LFUStore)(nil)
	_ Store = (*BadgerStore)(nil)
	_ Store = (*ValkeyStore)(nil)
	_ Store = NoopStore{}

	_ Sweeper = (*MemoryStore)(nil)
	_ Sweeper = (*LFUStore)(nil)
	_ Sweeper = (*BadgerStore)(nil)

	_ Pinger = (*ValkeyStore)(nil)
)
