// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/funnelcast/internal/cache"
	"github.com/tomtom215/funnelcast/internal/logging"
)

// ReadinessStatus is the payload of the readiness probe.
type ReadinessStatus struct {
	Ready          bool    `json:"ready"`
	Database       string  `json:"database"`
	CircuitBreaker string  `json:"circuit_breaker,omitempty"`
	Cache          string  `json:"cache,omitempty"`
	AdmissionLevel string  `json:"admission_level,omitempty"`
	Uptime         float64 `json:"uptime_seconds"`
}

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests.
//
// The database ping runs through the admission controller under the
// system.health tag so a saturated pool shows up as not ready. Cache store
// reachability is reported but never fails the probe: the range cache
// bypasses an unreachable store.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := ReadinessStatus{
		Ready:    true,
		Database: "ok",
		Uptime:   time.Since(h.startTime).Seconds(),
	}

	err := h.admission.Run(r.Context(), TagHealth, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, h.pingTimeout)
		defer cancel()
		return h.db.Ping(pingCtx)
	})
	if err != nil {
		status.Ready = false
		status.Database = "unreachable"
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
	}

	status.CircuitBreaker = h.db.BreakerState()
	status.AdmissionLevel = h.admission.Stats().Level
	status.Cache = h.cacheStatus(r.Context())

	rw := NewResponseWriter(w, r)
	if !status.Ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", status)
		return
	}
	rw.Success(status)
}

func (h *Handler) cacheStatus(ctx context.Context) string {
	if h.rangeCache == nil {
		return ""
	}
	store := h.rangeCache.Store()
	p, ok := store.(cache.Pinger)
	if !ok {
		return string(cache.BackendOf(store))
	}

	pingCtx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Cache store unreachable, serving uncached")
		return "unreachable"
	}
	return string(cache.BackendOf(store))
}
