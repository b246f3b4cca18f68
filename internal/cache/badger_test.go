// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore("", true, time.Minute)
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t)

	if err := s.SetWithTTL(ctx, "funnel:revenue:x", []byte(`{"value":42}`), time.Hour); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}

	got, ok, err := s.Get(ctx, "funnel:revenue:x")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"value":42}` {
		t.Errorf("Get = %q", got)
	}

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Errorf("Get(missing) = ok=%v err=%v, want miss without error", ok, err)
	}

	stats := s.Stats()
	if stats.Backend != BackendBadger || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestBadgerStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t)

	_ = s.SetWithTTL(ctx, "k", []byte("v1"), time.Hour)
	_ = s.SetWithTTL(ctx, "k", []byte("v2"), time.Hour)

	got, _, _ := s.Get(ctx, "k")
	if string(got) != "v2" {
		t.Errorf("Get after overwrite = %q, want v2", got)
	}
}

func TestBadgerStoreSweepInMemory(t *testing.T) {
	s := openTestBadger(t)

	if rounds := s.Sweep(context.Background()); rounds != 0 {
		t.Errorf("Sweep in memory mode = %d, want 0", rounds)
	}
	if s.Stats().LastSweep.IsZero() {
		t.Error("Expected LastSweep to be set")
	}
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "rangecache")

	s, err := OpenBadgerStore(dir, false, time.Minute)
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	if err := s.SetWithTTL(ctx, "k", []byte("persisted"), time.Hour); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = OpenBadgerStore(dir, false, time.Minute)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(got) != "persisted" {
		t.Errorf("Get after reopen = %q, %v, %v", got, ok, err)
	}
}

func TestOpenBadgerStoreRequiresPath(t *testing.T) {
	if _, err := OpenBadgerStore("", false, time.Minute); err == nil {
		t.Error("Expected error for empty path without in-memory mode")
	}
}
