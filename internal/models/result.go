// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package models

import (
	"time"
)

// DateLayout is the wire format for range bounds and series labels.
const DateLayout = "2006-01-02"

// Kind distinguishes single-value metrics from chart series.
type Kind string

const (
	// KindScalar is a single numeric or monetary value.
	KindScalar Kind = "scalar"
	// KindSeries is a chart: an ordered list of labelled points.
	KindSeries Kind = "series"
)

// Point is one labelled value of a series result.
// Label is a YYYY-MM-DD day for daily charts or a category name
// (funnel stage, hotel id) for breakdowns.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int64   `json:"count,omitempty"`
}

// ChunkInfo tags a cached result with the span of the month chunk it was
// stored under and the time it was written.
type ChunkInfo struct {
	ActualStart time.Time `json:"actual_start"`
	ActualEnd   time.Time `json:"actual_end"`
	CachedAt    time.Time `json:"cached_at"`
}

// Result is the payload produced by a data source and returned through the
// range cache and the metrics facade.
//
// A Result with Success false is a failure that callers translate into a
// transport-level error. Failed results are never cached.
//
// Example scalar result served from three cached month chunks:
//
//	{
//	  "success": true,
//	  "metric": "revenue",
//	  "kind": "scalar",
//	  "value": 18234.5,
//	  "range_start": "2025-01-15",
//	  "range_end": "2025-03-10",
//	  "cached": true,
//	  "aggregated": false,
//	  "chunks_used": 3
//	}
type Result struct {
	Success    bool       `json:"success"`
	Metric     string     `json:"metric,omitempty"`
	Kind       Kind       `json:"kind,omitempty"`
	Value      float64    `json:"value"`
	Series     []Point    `json:"series,omitempty"`
	RangeStart string     `json:"range_start,omitempty"`
	RangeEnd   string     `json:"range_end,omitempty"`
	Error      string     `json:"error,omitempty"`
	Note       string     `json:"note,omitempty"`
	Cached     bool       `json:"cached,omitempty"`
	Aggregated *bool      `json:"aggregated,omitempty"`
	ChunksUsed int        `json:"chunks_used,omitempty"`
	ChunkInfo  *ChunkInfo `json:"chunk_info,omitempty"`
}

// NewScalar returns a successful scalar result.
func NewScalar(value float64) Result {
	return Result{Success: true, Kind: KindScalar, Value: value}
}

// NewSeries returns a successful series result.
func NewSeries(points []Point) Result {
	if points == nil {
		points = []Point{}
	}
	return Result{Success: true, Kind: KindSeries, Series: points}
}

// Failure returns a failed result carrying the error message.
func Failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// WithRange stamps the result with the requested bounds.
func (r Result) WithRange(start, end time.Time) Result {
	r.RangeStart = start.Format(DateLayout)
	r.RangeEnd = end.Format(DateLayout)
	return r
}

// Clone returns a copy that shares no mutable state with r.
func (r Result) Clone() Result {
	if r.Series != nil {
		r.Series = append([]Point(nil), r.Series...)
	}
	if r.Aggregated != nil {
		v := *r.Aggregated
		r.Aggregated = &v
	}
	if r.ChunkInfo != nil {
		ci := *r.ChunkInfo
		r.ChunkInfo = &ci
	}
	return r
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
