// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package rangecache

import (
	"fmt"
	"time"

	"github.com/tomtom215/funnelcast/internal/models"
)

// Entry is the value stored under a cache key.
type Entry struct {
	Key        string            `json:"key"`
	Payload    models.Result     `json:"payload"`
	ChunkInfo  *models.ChunkInfo `json:"chunk_info,omitempty"`
	TTLSeconds int64             `json:"ttl_seconds"`
}

// Notes attached to aggregation failures
const (
	noteNoChunks  = "no cached chunks overlap the requested range"
	noteMalformed = "cached chunk has malformed metadata"
)

// aggregateChunks builds one result for [start, end] out of cached chunk
// entries.
//
// Every chunk holds a snapshot of a whole earlier range, not a partial
// value, so nothing is summed: a scalar takes the most recently cached
// chunk and is marked non-aggregated, a series takes the chunk that
// overlaps the request the most.
func aggregateChunks(start, end time.Time, kind models.Kind, entries []Entry) models.Result {
	start, end = truncateDay(start), truncateDay(end)

	relevant := make([]Entry, 0, len(entries))
	for _, e := range entries {
		ci := e.ChunkInfo
		if ci == nil || ci.ActualStart.IsZero() || ci.ActualEnd.IsZero() || ci.ActualEnd.Before(ci.ActualStart) {
			r := models.Failure(fmt.Sprintf("cache aggregation failed for %s", e.Key))
			r.Note = noteMalformed
			return r
		}
		if overlapDays(start, end, ci.ActualStart, ci.ActualEnd) > 0 {
			relevant = append(relevant, e)
		}
	}

	if len(relevant) == 0 {
		r := models.Failure("cache empty for range")
		r.Note = noteNoChunks
		r.ChunksUsed = 0
		return r
	}

	if kind == "" {
		kind = relevant[0].Payload.Kind
	}

	var (
		chosen     Entry
		aggregated bool
	)
	switch {
	case len(relevant) == 1:
		chosen, aggregated = relevant[0], true

	case kind == models.KindSeries:
		best := -1
		for _, e := range relevant {
			if d := overlapDays(start, end, e.ChunkInfo.ActualStart, e.ChunkInfo.ActualEnd); d > best {
				best, chosen = d, e
			}
		}
		aggregated = true

	default:
		chosen = relevant[0]
		for _, e := range relevant[1:] {
			if e.ChunkInfo.CachedAt.After(chosen.ChunkInfo.CachedAt) {
				chosen = e
			}
		}
		aggregated = false
	}

	r := chosen.Payload.Clone()
	r.Aggregated = models.BoolPtr(aggregated)
	r.ChunksUsed = len(relevant)
	ci := *chosen.ChunkInfo
	r.ChunkInfo = &ci
	return r
}

// overlapDays is the number of days shared by two inclusive day ranges
func overlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	lo := truncateDay(aStart)
	if b := truncateDay(bStart); b.After(lo) {
		lo = b
	}
	hi := truncateDay(aEnd)
	if b := truncateDay(bEnd); b.Before(hi) {
		hi = b
	}
	if hi.Before(lo) {
		return 0
	}
	return daySpan(lo, hi)
}
