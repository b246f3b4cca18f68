// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package api

import (
	"context"
	"time"

	"github.com/tomtom215/funnelcast/internal/admission"
	"github.com/tomtom215/funnelcast/internal/models"
	"github.com/tomtom215/funnelcast/internal/rangecache"
)

// TagHealth is the admission tag for readiness probes. It classifies as
// CRITICAL so probes are never queued behind dashboard traffic.
const TagHealth = "system.health"

// defaultMaxRangeDays bounds a metrics request to roughly two years.
const defaultMaxRangeDays = 732

// MetricsService resolves named funnel metrics over a date range.
type MetricsService interface {
	GetMetric(ctx context.Context, name, start, end string) (models.Result, error)
	Metrics() []models.MetricInfo
	Has(name string) bool
}

// AdmissionService gates operations through the connection-pool controller.
type AdmissionService interface {
	Run(ctx context.Context, tag string, fn func(ctx context.Context) error) error
	Stats() admission.Stats
}

// Database is the subset of the event store used for readiness.
type Database interface {
	Ping(ctx context.Context) error
	BreakerState() string
}

// Handler serves the HTTP API.
type Handler struct {
	metrics      MetricsService
	admission    AdmissionService
	db           Database
	rangeCache   *rangecache.Cache
	maxRangeDays int
	startTime    time.Time
	pingTimeout  time.Duration
}

// NewHandler creates a Handler. rangeCache may be nil, in which case the
// cache stats endpoint reports an empty snapshot.
func NewHandler(metrics MetricsService, adm AdmissionService, db Database, rangeCache *rangecache.Cache, maxRangeDays int) *Handler {
	if maxRangeDays <= 0 {
		maxRangeDays = defaultMaxRangeDays
	}
	return &Handler{
		metrics:      metrics,
		admission:    adm,
		db:           db,
		rangeCache:   rangeCache,
		maxRangeDays: maxRangeDays,
		startTime:    time.Now(),
		pingTimeout:  2 * time.Second,
	}
}
