// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/tomtom215/funnelcast/internal/models"
)

// topHotelsLimit caps the top_hotels breakdown.
const topHotelsLimit = 10

// UniqueVisitors counts distinct visitors with any event in the range.
func (db *DB) UniqueVisitors(ctx context.Context, start, end time.Time) (models.Result, error) {
	return db.scalar(ctx, "unique_visitors", `
		SELECT COUNT(DISTINCT visitor_id)
		FROM booking_events
		WHERE event_time >= ? AND event_time < ?`, start, end)
}

// Bookings counts booking events in the range.
func (db *DB) Bookings(ctx context.Context, start, end time.Time) (models.Result, error) {
	return db.scalar(ctx, "bookings", `
		SELECT COUNT(*)
		FROM booking_events
		WHERE event_type = 'booking' AND event_time >= ? AND event_time < ?`, start, end)
}

// Revenue sums booking revenue in the range.
func (db *DB) Revenue(ctx context.Context, start, end time.Time) (models.Result, error) {
	return db.scalar(ctx, "revenue", `
		SELECT COALESCE(SUM(revenue), 0)
		FROM booking_events
		WHERE event_type = 'booking' AND event_time >= ? AND event_time < ?`, start, end)
}

// DailyBookings returns one point per day with the booking count.
func (db *DB) DailyBookings(ctx context.Context, start, end time.Time) (models.Result, error) {
	return db.daily(ctx, "daily_bookings", `
		SELECT strftime(event_time, '%Y-%m-%d') AS day, COUNT(*)::DOUBLE, COUNT(*)
		FROM booking_events
		WHERE event_type = 'booking' AND event_time >= ? AND event_time < ?
		GROUP BY day
		ORDER BY day`, start, end)
}

// DailyRevenue returns one point per day with summed revenue. Count holds
// the number of bookings behind the value.
func (db *DB) DailyRevenue(ctx context.Context, start, end time.Time) (models.Result, error) {
	return db.daily(ctx, "daily_revenue", `
		SELECT strftime(event_time, '%Y-%m-%d') AS day, COALESCE(SUM(revenue), 0), COUNT(*)
		FROM booking_events
		WHERE event_type = 'booking' AND event_time >= ? AND event_time < ?
		GROUP BY day
		ORDER BY day`, start, end)
}

// DailyConversion returns one point per day with bookings per hundred
// visitors, the same ratio as the conversion_rate metric. Count holds the
// day's visitor total.
func (db *DB) DailyConversion(ctx context.Context, start, end time.Time) (models.Result, error) {
	return db.daily(ctx, "daily_conversion", `
		SELECT
			strftime(event_time, '%Y-%m-%d') AS day,
			CAST(COUNT(*) FILTER (WHERE event_type = 'booking') AS DOUBLE) * 100
				/ COUNT(DISTINCT visitor_id),
			COUNT(DISTINCT visitor_id)
		FROM booking_events
		WHERE event_time >= ? AND event_time < ?
		GROUP BY day
		ORDER BY day`, start, end)
}

// FunnelStages counts distinct visitors reaching each stage, in funnel order.
// Stages nobody reached are reported with zero.
func (db *DB) FunnelStages(ctx context.Context, start, end time.Time) (models.Result, error) {
	return db.runQuery(ctx, "funnel_stages", func(ctx context.Context) (models.Result, error) {
		rows, err := queryAndScan(ctx, db.conn, `
			SELECT event_type, COUNT(DISTINCT visitor_id)
			FROM booking_events
			WHERE event_time >= ? AND event_time < ?
			GROUP BY event_type`, rangeArgs(start, end), scanLabelCount)
		if err != nil {
			return models.Result{}, err
		}

		counts := make(map[string]int64, len(rows))
		for _, r := range rows {
			counts[r.Label] = r.Count
		}

		points := make([]models.Point, 0, len(models.FunnelStages))
		for _, stage := range models.FunnelStages {
			n := counts[string(stage)]
			points = append(points, models.Point{Label: string(stage), Value: float64(n), Count: n})
		}
		return models.NewSeries(points), nil
	})
}

// TopHotels returns the hotels with the highest booking revenue, highest
// first. Count holds the number of bookings per hotel.
func (db *DB) TopHotels(ctx context.Context, start, end time.Time) (models.Result, error) {
	return db.runQuery(ctx, "top_hotels", func(ctx context.Context) (models.Result, error) {
		args := append(rangeArgs(start, end), topHotelsLimit)
		points, err := queryAndScan(ctx, db.conn, `
			SELECT hotel_id, COALESCE(SUM(revenue), 0) AS total, COUNT(*)
			FROM booking_events
			WHERE event_type = 'booking' AND event_time >= ? AND event_time < ?
			GROUP BY hotel_id
			ORDER BY total DESC, hotel_id
			LIMIT ?`, args, scanPoint)
		if err != nil {
			return models.Result{}, err
		}
		return models.NewSeries(points), nil
	})
}

// scalar runs a single-value query over the range.
func (db *DB) scalar(ctx context.Context, operation, query string, start, end time.Time) (models.Result, error) {
	return db.runQuery(ctx, operation, func(ctx context.Context) (models.Result, error) {
		var value sql.NullFloat64
		if err := db.conn.QueryRowContext(ctx, query, rangeArgs(start, end)...).Scan(&value); err != nil {
			return models.Result{}, err
		}
		return models.NewScalar(value.Float64), nil
	})
}

// daily runs a per-day query returning (day, value, count) rows and fills
// days without events with zero.
func (db *DB) daily(ctx context.Context, operation, query string, start, end time.Time) (models.Result, error) {
	return db.runQuery(ctx, operation, func(ctx context.Context) (models.Result, error) {
		points, err := queryAndScan(ctx, db.conn, query, rangeArgs(start, end), scanPoint)
		if err != nil {
			return models.Result{}, err
		}
		return models.NewSeries(densify(start, end, points)), nil
	})
}

func scanPoint(rows *sql.Rows) (models.Point, error) {
	var p models.Point
	if err := rows.Scan(&p.Label, &p.Value, &p.Count); err != nil {
		return models.Point{}, err
	}
	return p, nil
}

func scanLabelCount(rows *sql.Rows) (models.Point, error) {
	var p models.Point
	if err := rows.Scan(&p.Label, &p.Count); err != nil {
		return models.Point{}, err
	}
	return p, nil
}
