// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/funnelcast/internal/testinfra"
)

func TestValkeyStore_Integration(t *testing.T) {
	vk := testinfra.StartValkey(t)
	ctx := context.Background()

	store, err := NewStore(ctx, Config{Backend: BackendValkey, ValkeyAddress: vk.Address, DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if BackendOf(store) != BackendValkey {
		t.Fatalf("backend = %q", BackendOf(store))
	}
	if err := store.(Pinger).Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	t.Run("miss then hit", func(t *testing.T) {
		if _, ok, err := store.Get(ctx, "funnel:revenue:2025-01"); err != nil || ok {
			t.Fatalf("Get before set = ok %v err %v, want miss", ok, err)
		}
		if err := store.SetWithTTL(ctx, "funnel:revenue:2025-01", []byte(`{"value":1}`), time.Minute); err != nil {
			t.Fatal(err)
		}
		got, ok, err := store.Get(ctx, "funnel:revenue:2025-01")
		if err != nil || !ok || string(got) != `{"value":1}` {
			t.Errorf("Get = %q ok %v err %v", got, ok, err)
		}
	})

	t.Run("entries expire", func(t *testing.T) {
		if err := store.SetWithTTL(ctx, "short", []byte("x"), time.Second); err != nil {
			t.Fatal(err)
		}
		time.Sleep(1500 * time.Millisecond)
		if _, ok, _ := store.Get(ctx, "short"); ok {
			t.Error("entry should have expired")
		}
	})

	t.Run("stats count hits and misses", func(t *testing.T) {
		s := store.(StatsReporter).Stats()
		if s.Hits < 1 || s.Misses < 1 {
			t.Errorf("stats = %+v, want at least one hit and one miss", s)
		}
	})
}
