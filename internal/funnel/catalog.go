// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package funnel

import (
	"context"
	"time"

	"github.com/tomtom215/funnelcast/internal/models"
	"github.com/tomtom215/funnelcast/internal/rangecache"
)

// Metric names
const (
	MetricUniqueVisitors      = "unique_visitors"
	MetricBookings            = "bookings"
	MetricRevenue             = "revenue"
	MetricConversionRate      = "conversion_rate"
	MetricAverageBookingValue = "average_booking_value"
	MetricRevenuePerVisitor   = "revenue_per_visitor"
	MetricBookingsChart       = "bookings_chart"
	MetricRevenueChart        = "revenue_chart"
	MetricConversionChart     = "conversion_chart"
	MetricFunnelStages        = "funnel_stages"
	MetricTopHotels           = "top_hotels"
)

// DataSource computes base metrics over an inclusive day range.
// *database.DB implements it.
type DataSource interface {
	UniqueVisitors(ctx context.Context, start, end time.Time) (models.Result, error)
	Bookings(ctx context.Context, start, end time.Time) (models.Result, error)
	Revenue(ctx context.Context, start, end time.Time) (models.Result, error)
	DailyBookings(ctx context.Context, start, end time.Time) (models.Result, error)
	DailyRevenue(ctx context.Context, start, end time.Time) (models.Result, error)
	DailyConversion(ctx context.Context, start, end time.Time) (models.Result, error)
	FunnelStages(ctx context.Context, start, end time.Time) (models.Result, error)
	TopHotels(ctx context.Context, start, end time.Time) (models.Result, error)
}

// BookingDefinitions returns the hotel booking metric catalogue backed by src.
// Base metrics come before the derived metrics that use them.
func BookingDefinitions(src DataSource) []Definition {
	base := func(name, tag string, kind models.Kind, fn rangecache.ComputeFunc) Definition {
		return Definition{Name: name, Tag: tag, Kind: kind, Compute: fn}
	}
	ratio := func(name, num, den string, scale float64) Definition {
		return Definition{Name: name, Kind: models.KindScalar, Numerator: num, Denominator: den, Scale: scale}
	}

	return []Definition{
		base(MetricUniqueVisitors, "metric.unique_visitors", models.KindScalar, src.UniqueVisitors),
		base(MetricBookings, "metric.bookings", models.KindScalar, src.Bookings),
		base(MetricRevenue, "metric.revenue", models.KindScalar, src.Revenue),

		ratio(MetricConversionRate, MetricBookings, MetricUniqueVisitors, 100),
		ratio(MetricAverageBookingValue, MetricRevenue, MetricBookings, 1),
		ratio(MetricRevenuePerVisitor, MetricRevenue, MetricUniqueVisitors, 1),

		base(MetricBookingsChart, "chart.bookings", models.KindSeries, src.DailyBookings),
		base(MetricRevenueChart, "chart.revenue", models.KindSeries, src.DailyRevenue),
		base(MetricConversionChart, "chart.conversion", models.KindSeries, src.DailyConversion),
		base(MetricFunnelStages, "aggregate.funnel_stages", models.KindSeries, src.FunnelStages),
		base(MetricTopHotels, "aggregate.top_hotels", models.KindSeries, src.TopHotels),
	}
}

// NewBookingFacade creates a facade with the full booking catalogue.
func NewBookingFacade(rc *rangecache.Cache, src DataSource, layer string, classifier Classifier) (*Facade, error) {
	f := NewFacade(rc, layer, classifier)
	for _, def := range BookingDefinitions(src) {
		if err := f.Register(def); err != nil {
			return nil, err
		}
	}
	return f, nil
}
