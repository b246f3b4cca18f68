// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/tomtom215/funnelcast/internal/logging"
	"github.com/tomtom215/funnelcast/internal/metrics"
	"github.com/tomtom215/funnelcast/internal/models"
)

// Funnel drop-off used by the mock data generator
const (
	seedViewRate     = 0.60 // searchers who open a hotel page
	seedCheckoutRate = 0.40 // viewers who start checkout
	seedBookingRate  = 0.50 // checkouts that complete
	seedHotels       = 25
	seedBatchDays    = 7
)

// SeedMockData fills an empty event table with a synthetic booking funnel
// ending today (UTC). The generator is seeded with a fixed value so repeated
// runs produce the same funnel shape. A non-empty table is left untouched.
// This is intended for development and demo purposes only.
func (db *DB) SeedMockData(ctx context.Context, days, visitorsPerDay int) error {
	if days <= 0 || visitorsPerDay <= 0 {
		return fmt.Errorf("seed requires positive days and visitors, got %d and %d", days, visitorsPerDay)
	}

	existing, err := db.CountEvents(ctx)
	if err != nil {
		return err
	}
	if existing > 0 {
		logging.Info().Int64("events", existing).Msg("Event table not empty, skipping mock data")
		return nil
	}

	logging.Info().Int("days", days).Int("visitors_per_day", visitorsPerDay).Msg("Seeding database with mock booking events...")

	end := truncateDay(time.Now())
	first := end.AddDate(0, 0, -(days - 1))
	rng := newSeedRand(uint64(days))

	var (
		total int
		batch []models.BookingEvent
	)
	for d := 0; d < days; d++ {
		day := first.AddDate(0, 0, d)
		batch = append(batch, generateDay(rng, day, visitorsPerDay)...)

		if (d+1)%seedBatchDays == 0 || d == days-1 {
			if err := db.InsertEvents(ctx, batch); err != nil {
				return fmt.Errorf("failed to seed events for %s: %w", day.Format(models.DateLayout), err)
			}
			total += len(batch)
			metrics.DBEventsSeeded.Add(float64(len(batch)))
			batch = batch[:0]
		}
	}

	logging.Info().
		Int("events", total).
		Str("from", first.Format(models.DateLayout)).
		Str("to", end.Format(models.DateLayout)).
		Msg("Mock data seeded successfully")

	return nil
}

// newSeedRand returns the fixed-seed generator used for mock data.
func newSeedRand(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(20250101, stream))
}

// generateDay produces the funnel events of one day. Every visitor searches;
// each later stage is reached with the configured probability.
func generateDay(rng *rand.Rand, day time.Time, visitors int) []models.BookingEvent {
	events := make([]models.BookingEvent, 0, visitors*2)
	dayKey := day.Format("20060102")

	for v := 0; v < visitors; v++ {
		visitorID := fmt.Sprintf("v-%s-%04d", dayKey, v)
		hotelID := fmt.Sprintf("h-%03d", rng.IntN(seedHotels)+1)
		at := day.Add(time.Duration(rng.IntN(22*60)) * time.Minute)

		events = append(events, models.BookingEvent{
			EventTime: at, EventType: models.EventSearch, VisitorID: visitorID, HotelID: hotelID,
		})
		if rng.Float64() >= seedViewRate {
			continue
		}

		at = at.Add(time.Duration(1+rng.IntN(10)) * time.Minute)
		events = append(events, models.BookingEvent{
			EventTime: at, EventType: models.EventHotelView, VisitorID: visitorID, HotelID: hotelID,
		})
		if rng.Float64() >= seedCheckoutRate {
			continue
		}

		at = at.Add(time.Duration(1+rng.IntN(10)) * time.Minute)
		events = append(events, models.BookingEvent{
			EventTime: at, EventType: models.EventCheckout, VisitorID: visitorID, HotelID: hotelID,
		})
		if rng.Float64() >= seedBookingRate {
			continue
		}

		at = at.Add(time.Duration(1+rng.IntN(5)) * time.Minute)
		bookingID := fmt.Sprintf("b-%s-%04d", dayKey, v)
		revenue := float64(80+rng.IntN(520)) + float64(rng.IntN(100))/100
		events = append(events, models.BookingEvent{
			EventTime: at, EventType: models.EventBooking, VisitorID: visitorID, HotelID: hotelID,
			BookingID: &bookingID, Revenue: &revenue,
		})
	}
	return events
}
