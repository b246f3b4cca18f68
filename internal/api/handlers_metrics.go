// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/funnelcast/internal/logging"
)

// ListMetrics returns the metric catalogue.
func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.metrics.Metrics())
}

// GetMetric returns one metric over ?start=YYYY-MM-DD&end=YYYY-MM-DD.
//
// Failed computations (a Result with success=false) are reported as 502 with
// the Result attached as details so clients still see the failure note.
func (h *Handler) GetMetric(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name := chi.URLParam(r, "name")

	if !h.metrics.Has(name) {
		rw.Error(http.StatusNotFound, ErrCodeUnknownMetric, "Unknown metric: "+name)
		return
	}

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if apiErr := validateRange(start, end, h.maxRangeDays); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	result, err := h.metrics.GetMetric(r.Context(), name, start, end)
	if err != nil {
		status, code, message := errorStatus(err)
		logging.Ctx(r.Context()).Warn().
			Err(err).
			Str("metric", sanitizeLogValue(name)).
			Int("status", status).
			Msg("Metric request failed")
		if retryable(status) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		}
		rw.Error(status, code, message)
		return
	}

	if !result.Success {
		logging.Ctx(r.Context()).Warn().
			Str("metric", sanitizeLogValue(name)).
			Str("error", sanitizeLogValue(result.Error)).
			Msg("Metric computation failed")
		rw.ErrorWithDetails(http.StatusBadGateway, ErrCodeComputeFailed, "Metric computation failed", result)
		return
	}

	rw.Success(result)
}
