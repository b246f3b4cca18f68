// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/funnelcast/internal/metrics"
	"github.com/tomtom215/funnelcast/internal/models"
)

// InsertEvents writes events in a single transaction. Events without an ID
// are assigned a random UUID.
func (db *DB) InsertEvents(ctx context.Context, events []models.BookingEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := db.insertEvents(ctx, events)
	metrics.RecordDBQuery("INSERT", eventsTable, time.Since(start), err)
	return err
}

func (db *DB) insertEvents(ctx context.Context, events []models.BookingEvent) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after Commit returns sql.ErrTxDone, which is expected
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO booking_events (event_id, event_time, event_type, visitor_id, hotel_id, booking_id, revenue)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "statement")

	for i := range events {
		e := &events[i]
		if e.EventID == "" {
			e.EventID = uuid.NewString()
		}

		var bookingID, revenue interface{}
		if e.BookingID != nil {
			bookingID = *e.BookingID
		}
		if e.Revenue != nil {
			revenue = *e.Revenue
		}

		if _, err := stmt.ExecContext(ctx,
			e.EventID, e.EventTime.UTC(), string(e.EventType), e.VisitorID, e.HotelID, bookingID, revenue,
		); err != nil {
			return fmt.Errorf("failed to insert event %s: %w", e.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}
	return nil
}
