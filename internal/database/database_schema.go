// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the event table
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	// One row per funnel event. booking_id and revenue are set on booking
	// events only.
	queries := []string{
		`CREATE TABLE IF NOT EXISTS booking_events (
			event_id   VARCHAR PRIMARY KEY,
			event_time TIMESTAMP NOT NULL,
			event_type VARCHAR NOT NULL,
			visitor_id VARCHAR NOT NULL,
			hotel_id   VARCHAR NOT NULL,
			booking_id VARCHAR,
			revenue    DOUBLE
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// createIndexes creates indexes for the range-filtered queries
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_booking_events_time ON booking_events(event_time)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_events_type_time ON booking_events(event_type, event_time)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_events_hotel ON booking_events(hotel_id)`,
	}

	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}
	return nil
}
