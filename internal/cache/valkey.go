// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/tomtom215/funnelcast/internal/logging"
)

// ValkeyOptions holds connection settings for NewValkeyStore.
type ValkeyOptions struct {
	Address    string
	Password   string
	DB         int
	DefaultTTL time.Duration
}

// ValkeyStore is a Store on an external Valkey (or Redis) server, letting
// several API replicas share one range cache.
type ValkeyStore struct {
	client     valkey.Client
	address    string
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// NewValkeyStore connects to the server and verifies it with PING.
func NewValkeyStore(ctx context.Context, opts ValkeyOptions) (*ValkeyStore, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("valkey store requires an address")
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 5 * time.Minute
	}

	clientOpts := valkey.ClientOption{
		InitAddress: []string{opts.Address},
	}
	if opts.Password != "" {
		clientOpts.Password = opts.Password
	}
	if opts.DB != 0 {
		clientOpts.SelectDB = opts.DB
	}

	client, err := valkey.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	logging.Info().Str("address", opts.Address).Int("db", opts.DB).Msg("Valkey cache store connected")

	return &ValkeyStore{
		client:     client,
		address:    opts.Address,
		defaultTTL: opts.DefaultTTL,
	}, nil
}

// Backend returns BackendValkey.
func (s *ValkeyStore) Backend() Backend { return BackendValkey }

// Get issues GET key. A nil reply is a miss.
func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result := s.client.Do(ctx, s.client.B().Get().Key(key).Build())
	if err := result.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			s.misses.Add(1)
			return nil, false, nil
		}
		s.errs.Add(1)
		return nil, false, fmt.Errorf("valkey get %s: %w", key, err)
	}

	data, err := result.AsBytes()
	if err != nil {
		s.errs.Add(1)
		return nil, false, fmt.Errorf("valkey decode %s: %w", key, err)
	}

	s.hits.Add(1)
	return data, true, nil
}

// SetWithTTL issues SET key value EX seconds.
func (s *ValkeyStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ttl = valkeyTTL(ttl, s.defaultTTL)
	cmd := s.client.B().Set().Key(key).Value(string(value)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		s.errs.Add(1)
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Stats returns client-side statistics. The server owns expiry, so
// evictions and entries are not reported.
func (s *ValkeyStore) Stats() Stats {
	hits, misses := s.hits.Load(), s.misses.Load()
	return Stats{
		Backend: BackendValkey,
		Hits:    hits,
		Misses:  misses,
		Errors:  s.errs.Load(),
		HitRate: hitRate(hits, misses),
	}
}

// Close closes the client.
func (s *ValkeyStore) Close() error {
	s.client.Close()
	return nil
}

// valkeyTTL converts a TTL to whole seconds for EX, rounding up so a
// sub-second TTL never becomes EX 0.
func valkeyTTL(ttl, fallback time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = fallback
	}
	if rem := ttl % time.Second; rem != 0 {
		ttl += time.Second - rem
	}
	return ttl
}
