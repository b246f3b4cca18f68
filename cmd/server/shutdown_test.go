// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tomtom215/funnelcast/internal/supervisor"
	"github.com/tomtom215/funnelcast/internal/supervisor/services"
)

func TestWaitForTree_ReturnsAfterCancel(t *testing.T) {
	tree, err := supervisor.NewSupervisorTree(slog.New(slog.NewTextHandler(io.Discard, nil)), supervisor.TreeConfig{
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	tree.AddDataService(services.NewTickerService("noop", 10*time.Millisecond, func(context.Context) int { return 0 }))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan error, 1)
	go func() { done <- waitForTree(errCh) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("waitForTree() = %v, want nil on cancel", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("waitForTree did not return after shutdown")
	}
}

func TestWaitForTree(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		sent error
		want error
	}{
		{"clean exit", nil, nil},
		{"canceled is not an error", context.Canceled, nil},
		{"wrapped canceled", errors.Join(context.Canceled), nil},
		{"failure propagates", boom, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// one buffered value, never closed
			errCh := make(chan error, 1)
			errCh <- tt.sent
			if got := waitForTree(errCh); !errors.Is(got, tt.want) || (tt.want == nil && got != nil) {
				t.Errorf("waitForTree() = %v, want %v", got, tt.want)
			}
		})
	}
}
