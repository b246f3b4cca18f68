// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package cache

import (
	"context"
	"time"
)

// NoopStore never stores anything. Every request reaches the data source.
type NoopStore struct{}

// Backend returns BackendNone.
func (NoopStore) Backend() Backend { return BackendNone }

// Get always misses.
func (NoopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// SetWithTTL discards the value.
func (NoopStore) SetWithTTL(context.Context, string, []byte, time.Duration) error { return nil }

// Stats reports the backend only.
func (NoopStore) Stats() Stats { return Stats{Backend: BackendNone} }

// Close is a no-op.
func (NoopStore) Close() error { return nil }
