// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package models

import (
	"time"
)

// EventType is a stage of the booking funnel.
type EventType string

const (
	EventSearch    EventType = "search"
	EventHotelView EventType = "hotel_view"
	EventCheckout  EventType = "checkout"
	EventBooking   EventType = "booking"
)

// FunnelStages lists the funnel stages in order.
var FunnelStages = []EventType{EventSearch, EventHotelView, EventCheckout, EventBooking}

// BookingEvent is one row of the booking_events table.
// BookingID and Revenue are only set for booking events.
type BookingEvent struct {
	EventID   string    `json:"event_id"`
	EventTime time.Time `json:"event_time"`
	EventType EventType `json:"event_type"`
	VisitorID string    `json:"visitor_id"`
	HotelID   string    `json:"hotel_id"`
	BookingID *string   `json:"booking_id,omitempty"`
	Revenue   *float64  `json:"revenue,omitempty"`
}

// MetricInfo describes one entry of the metric catalogue.
type MetricInfo struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Tag      string `json:"tag,omitempty"`
	Derived  bool   `json:"derived"`
	Priority string `json:"priority,omitempty"`
}
