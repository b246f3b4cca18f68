// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

// Package funnel is the metrics facade: it maps a metric name and a day range
// to a range cache lookup backed by the metric's own data source query.
//
// # Metrics
//
// Base metrics (unique_visitors, bookings, revenue and the chart and
// breakdown series) each carry an admission tag and a compute function.
// Derived metrics (conversion_rate, average_booking_value,
// revenue_per_visitor) fetch their two inputs through the facade in parallel
// and divide them. A zero denominator yields zero rather than an error.
//
// # Results and Errors
//
// GetMetric returns a models.Result. A data source failure is a Result with
// Success false and a nil error, and callers translate it into a transport
// error. Returned errors wrap ErrUnknownMetric, ErrInvalidDate,
// rangecache.ErrInvalidRange, admission.ErrQueueTimeout or a data source
// error.
//
// # Usage
//
//	facade, err := funnel.NewBookingFacade(rangeCache, db, "funnel", controller)
//	if err != nil {
//	    return err
//	}
//	result, err := facade.GetMetric(ctx, funnel.MetricRevenue, "2025-01-15", "2025-03-10")
package funnel
