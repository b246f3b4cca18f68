// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package rangecache

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// MonthChunk is one calendar month of a requested range.
// ChunkStart/ChunkEnd are the month bounds; ActualStart/ActualEnd are the
// part of the request that falls inside the month. All bounds are
// inclusive UTC days.
type MonthChunk struct {
	Year        int
	Month       time.Month
	ChunkStart  time.Time
	ChunkEnd    time.Time
	ActualStart time.Time
	ActualEnd   time.Time
}

// ID returns the YYYY-MM chunk identifier used in cache keys.
func (m MonthChunk) ID() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Days returns the number of requested days inside the chunk.
func (m MonthChunk) Days() int {
	return daySpan(m.ActualStart, m.ActualEnd)
}

// SplitMonths splits [start, end] into contiguous month chunks whose
// actual spans exactly cover the range. It returns nil if end is before
// start.
func SplitMonths(start, end time.Time) []MonthChunk {
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return nil
	}

	var chunks []MonthChunk
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		monthEnd := cur.AddDate(0, 1, -1)

		actualStart := cur
		if start.After(actualStart) {
			actualStart = start
		}
		actualEnd := monthEnd
		if end.Before(actualEnd) {
			actualEnd = end
		}

		chunks = append(chunks, MonthChunk{
			Year:        cur.Year(),
			Month:       cur.Month(),
			ChunkStart:  cur,
			ChunkEnd:    monthEnd,
			ActualStart: actualStart,
			ActualEnd:   actualEnd,
		})
		cur = cur.AddDate(0, 1, 0)
	}
	return chunks
}

// CalculateTTL returns how long a result for [start, end] may be cached.
// Historical ranges (ending more than a week ago) are immutable and cache
// long; recent ranges expire faster the shorter they are.
func CalculateTTL(start, end, now time.Time) time.Duration {
	span := daySpan(start, end)
	daysFromNow := int(truncateDay(now).Sub(truncateDay(end)) / day)

	if daysFromNow > 7 {
		if span > 30 {
			return 24 * time.Hour
		}
		return 12 * time.Hour
	}

	switch {
	case span <= 1:
		return 5 * time.Minute
	case span <= 7:
		return 15 * time.Minute
	case span <= 30:
		return 30 * time.Minute
	default:
		return 60 * time.Minute
	}
}

// daySpan is the inclusive number of days in [start, end]
func daySpan(start, end time.Time) int {
	return int(truncateDay(end).Sub(truncateDay(start))/day) + 1
}

// truncateDay drops the time of day, in UTC
func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
