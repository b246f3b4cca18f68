// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package api

import (
	"fmt"
	"strings"

	"github.com/tomtom215/funnelcast/internal/validation"
)

// retryAfterSeconds is sent with 503 and 504 responses.
const retryAfterSeconds = 1

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// validateRange checks a start/end query pair.
// Returns nil if validation passes.
func validateRange(start, end string, maxDays int) *validation.APIError {
	validationErr := validation.ValidateRange(start, end, maxDays)
	if validationErr == nil {
		return nil
	}
	return validationErr.ToAPIError()
}
