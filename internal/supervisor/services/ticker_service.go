// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package services

import (
	"context"
	"time"

	"github.com/tomtom215/funnelcast/internal/cache"
	"github.com/tomtom215/funnelcast/internal/logging"
)

// TickerService runs a housekeeping task on a fixed interval until its
// context is canceled. The task returns how many items it reclaimed; a
// non-zero count is logged at debug level.
type TickerService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) int
	runs     func()
}

// NewTickerService creates a TickerService. A non-positive interval becomes one minute.
func NewTickerService(name string, interval time.Duration, task func(ctx context.Context) int) *TickerService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TickerService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (s *TickerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n := s.task(ctx)
			if n > 0 {
				logging.Debug().Str("service", s.name).Int("reclaimed", n).Msg("Housekeeping pass")
			}
			if s.runs != nil {
				s.runs()
			}
		}
	}
}

// String implements fmt.Stringer; suture uses it in event logs.
func (s *TickerService) String() string {
	return s.name
}

// HistoryPruner is satisfied by *admission.Controller.
type HistoryPruner interface {
	PruneHistory() int
}

// NewHistoryPrunerService drops admission duration samples older than the
// history window every interval.
func NewHistoryPrunerService(p HistoryPruner, interval time.Duration) *TickerService {
	return NewTickerService("admission-history-pruner", interval, func(context.Context) int {
		return p.PruneHistory()
	})
}

// NewCacheJanitorService sweeps expired entries from a store every interval.
// Stores without housekeeping needs do not implement cache.Sweeper and
// should not be given a janitor.
func NewCacheJanitorService(s cache.Sweeper, interval time.Duration) *TickerService {
	return NewTickerService("cache-janitor", interval, s.Sweep)
}
