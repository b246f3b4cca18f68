// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/funnelcast/internal/logging"
	"github.com/tomtom215/funnelcast/internal/metrics"
)

// badgerGCRatio is the discard ratio passed to RunValueLogGC
const badgerGCRatio = 0.5

// BadgerStore is a persistent Store on an embedded BadgerDB.
// Entries carry a native badger TTL, so expired chunks disappear without a
// sweep; Sweep only reclaims value log space.
type BadgerStore struct {
	db         *badger.DB
	path       string
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64

	mu        sync.Mutex
	lastSweep time.Time
}

// OpenBadgerStore opens (or creates) a badger database at path.
// With inMemory set the path is ignored and nothing is written to disk.
func OpenBadgerStore(path string, inMemory bool, defaultTTL time.Duration) (*BadgerStore, error) {
	if !inMemory && path == "" {
		return nil, fmt.Errorf("badger store requires a path")
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.NumCompactors = 2

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", path).
		Bool("in_memory", inMemory).
		Msg("Badger cache store opened")

	return &BadgerStore{
		db:         db,
		path:       path,
		defaultTTL: defaultTTL,
		lastSweep:  time.Now(),
	}, nil
}

// Backend returns BackendBadger.
func (s *BadgerStore) Backend() Backend { return BackendBadger }

// Get reads a value. Expired keys are reported as missing by badger.
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		s.misses.Add(1)
		return nil, false, nil
	case err != nil:
		s.errs.Add(1)
		return nil, false, fmt.Errorf("badger get %s: %w", key, err)
	}

	s.hits.Add(1)
	return value, true, nil
}

// SetWithTTL writes value with a native TTL. Badger expiry has one-second
// resolution, so shorter TTLs are rounded up.
func (s *BadgerStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if ttl < time.Second {
		ttl = time.Second
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
	if err != nil {
		s.errs.Add(1)
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	return nil
}

// Sweep runs value log GC until nothing is left to rewrite and returns the
// number of GC rounds that reclaimed space.
func (s *BadgerStore) Sweep(_ context.Context) int {
	rounds := 0
	for {
		err := s.db.RunValueLogGC(badgerGCRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			break
		}
		if err != nil {
			logging.Warn().Err(err).Str("path", s.path).Msg("Badger value log GC failed")
			break
		}
		rounds++
	}

	s.mu.Lock()
	s.lastSweep = time.Now()
	s.mu.Unlock()

	metrics.CacheStoreEvictions.WithLabelValues(string(BackendBadger)).Add(float64(rounds))
	return rounds
}

// Stats returns a snapshot of store statistics. Entries is not tracked;
// SizeBytes reports the LSM tree plus value log size.
func (s *BadgerStore) Stats() Stats {
	lsm, vlog := s.db.Size()
	hits, misses := s.hits.Load(), s.misses.Load()

	s.mu.Lock()
	lastSweep := s.lastSweep
	s.mu.Unlock()

	return Stats{
		Backend:   BackendBadger,
		Hits:      hits,
		Misses:    misses,
		Errors:    s.errs.Load(),
		SizeBytes: lsm + vlog,
		HitRate:   hitRate(hits, misses),
		LastSweep: lastSweep,
	}
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	return nil
}
