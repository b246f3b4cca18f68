// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package admission

import (
	"math"
	"sort"
	"time"
)

// Stats is a snapshot of controller state for the stats endpoint.
type Stats struct {
	Active          int            `json:"active"`
	MaxConcurrent   int            `json:"max_concurrent"`
	Level           string         `json:"level"`
	QueueDepth      map[string]int `json:"queue_depth"`
	TotalOperations int64          `json:"total_operations"`
	Errors          int64          `json:"errors"`
	Exhaustion      int64          `json:"exhaustion_events"`
	QueueProcessed  int64          `json:"queue_processed"`
	QueueTimeouts   int64          `json:"queue_timeouts"`
	AvgWaitMs       float64        `json:"avg_wait_ms"`
	Recent          RecentStats    `json:"recent"`
}

// RecentStats summarizes operations completed within the history window.
type RecentStats struct {
	Count       int     `json:"count"`
	Failures    int     `json:"failures"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
	WindowSecs  float64 `json:"window_seconds"`
	SuccessRate float64 `json:"success_rate"`
}

// Stats returns a snapshot of the controller.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	depth := make(map[string]int, numPriorities)
	for p := PriorityCritical; p <= PriorityLow; p++ {
		depth[p.String()] = len(c.queues[p])
	}
	s := Stats{
		Active:          c.active,
		MaxConcurrent:   c.cfg.MaxConcurrent,
		Level:           c.LevelFor(c.active).String(),
		QueueDepth:      depth,
		TotalOperations: c.totalOps,
		Errors:          c.errorCount,
		Exhaustion:      c.exhaustion,
		QueueProcessed:  c.queueProcessed,
		QueueTimeouts:   c.queueTimeouts,
		AvgWaitMs:       durationMs(c.avgWait),
	}

	cutoff := c.now().Add(-c.cfg.HistoryWindow)
	durations := make([]time.Duration, 0, len(c.history))
	failures := 0
	for _, h := range c.history {
		if h.at.Before(cutoff) {
			continue
		}
		durations = append(durations, h.duration)
		if !h.success {
			failures++
		}
	}
	window := c.cfg.HistoryWindow
	c.mu.Unlock()

	s.Recent = summarize(durations, failures, window)
	return s
}

// summarize computes percentiles over unsorted durations
func summarize(durations []time.Duration, failures int, window time.Duration) RecentStats {
	r := RecentStats{
		Count:      len(durations),
		Failures:   failures,
		WindowSecs: window.Seconds(),
	}
	if len(durations) == 0 {
		return r
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	r.P50Ms = durationMs(percentile(durations, 0.50))
	r.P95Ms = durationMs(percentile(durations, 0.95))
	r.SuccessRate = float64(len(durations)-failures) / float64(len(durations)) * 100.0
	return r
}

// percentile uses the nearest-rank method on sorted input
func percentile(sorted []time.Duration, q float64) time.Duration {
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
