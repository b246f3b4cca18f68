// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

// Package validation provides request validation using go-playground/validator v10.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - A yyyymmdd tag accepting calendar-valid YYYY-MM-DD dates only
//   - RangeRequest with struct-level checks for end >= start and a span cap
//   - APIError conversion producing VALIDATION_ERROR responses
//
// Field names in errors are the JSON names, which match the query parameters.
//
// # Usage
//
//	if verr := validation.ValidateRange(start, end, cfg.Security.MaxRangeDays); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// # Tags
//
//   - required: field must not be empty
//   - yyyymmdd: strict YYYY-MM-DD calendar date
//   - gtedate (struct level): end is on or after start
//   - max_span (struct level): inclusive span does not exceed MaxDays
package validation
