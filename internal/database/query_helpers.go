// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/funnelcast/internal/logging"
	"github.com/tomtom215/funnelcast/internal/metrics"
	"github.com/tomtom215/funnelcast/internal/models"
)

const eventsTable = "booking_events"

// scanFunc is a function that scans a single row into a result type
type scanFunc[T any] func(*sql.Rows) (T, error)

// queryAndScan executes a query and scans all rows using the provided scan function
func queryAndScan[T any](ctx context.Context, db *sql.DB, query string, args []interface{}, scan scanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "rows")

	var results []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// runQuery executes fn through the circuit breaker and records its duration.
// Errors are wrapped with the operation name.
func (db *DB) runQuery(ctx context.Context, operation string, fn func(ctx context.Context) (models.Result, error)) (models.Result, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	out, err := db.breaker.execute(func() (any, error) {
		return fn(ctx)
	})
	metrics.RecordDBQuery(operation, eventsTable, time.Since(start), err)

	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("operation", operation).
			Str("error_type", errorType(err)).
			Msg("Funnel query failed")
		return models.Result{}, fmt.Errorf("%s: %w", operation, err)
	}

	result, ok := out.(models.Result)
	if !ok {
		return models.Result{}, fmt.Errorf("%s: unexpected result type %T", operation, out)
	}
	return result, nil
}

// rangeArgs converts inclusive day bounds into the half-open timestamp
// interval [start, end+1day) used by every range query.
func rangeArgs(start, end time.Time) []interface{} {
	from := truncateDay(start)
	to := truncateDay(end).AddDate(0, 0, 1)
	return []interface{}{from, to}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween lists every YYYY-MM-DD day of the inclusive range.
func daysBetween(start, end time.Time) []string {
	from := truncateDay(start)
	to := truncateDay(end)

	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(models.DateLayout))
	}
	return days
}

// densify returns one point per day of the range, taking values from points
// and filling missing days with zero.
func densify(start, end time.Time, points []models.Point) []models.Point {
	byDay := make(map[string]models.Point, len(points))
	for _, p := range points {
		byDay[p.Label] = p
	}

	days := daysBetween(start, end)
	out := make([]models.Point, 0, len(days))
	for _, day := range days {
		if p, ok := byDay[day]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, models.Point{Label: day})
	}
	return out
}
