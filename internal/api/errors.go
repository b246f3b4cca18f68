// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/funnelcast/internal/admission"
	"github.com/tomtom215/funnelcast/internal/database"
	"github.com/tomtom215/funnelcast/internal/funnel"
	"github.com/tomtom215/funnelcast/internal/rangecache"
)

// errorStatus maps an error from the metrics stack to an HTTP status, an
// error code and a client-safe message.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, funnel.ErrUnknownMetric):
		return http.StatusNotFound, ErrCodeUnknownMetric, "Unknown metric"
	case errors.Is(err, funnel.ErrInvalidDate), errors.Is(err, rangecache.ErrInvalidRange):
		return http.StatusBadRequest, ErrCodeValidationFailed, "Invalid date range"
	case errors.Is(err, admission.ErrQueueTimeout):
		return http.StatusServiceUnavailable, ErrCodeQueueTimeout, "Server busy, request timed out waiting for capacity"
	case errors.Is(err, database.ErrCircuitOpen):
		return http.StatusServiceUnavailable, ErrCodeCircuitOpen, "Database temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request canceled"
	default:
		return http.StatusInternalServerError, ErrCodeInternalError, "Internal error"
	}
}

// retryable reports whether a client may retry after a short delay.
func retryable(status int) bool {
	return status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout
}
