// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

func TestValidateRange_Valid(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		maxDays int
	}{
		{"single day", "2025-03-01", "2025-03-01", 0},
		{"three months", "2025-01-15", "2025-03-10", 0},
		{"leap day", "2024-02-29", "2024-03-01", 0},
		{"exactly at cap", "2025-01-01", "2025-01-31", 31},
		{"year crossing", "2024-12-20", "2025-01-05", 366},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateRange(tt.start, tt.end, tt.maxDays); err != nil {
				t.Errorf("ValidateRange(%q, %q, %d) = %v, want nil", tt.start, tt.end, tt.maxDays, err)
			}
		})
	}
}

func TestValidateRange_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		maxDays   int
		wantField string
		wantTag   string
	}{
		{"missing start", "", "2025-01-01", 0, "start", "required"},
		{"missing end", "2025-01-01", "", 0, "end", "required"},
		{"wrong separator", "2025/01/01", "2025-01-02", 0, "start", "yyyymmdd"},
		{"not a calendar date", "2025-02-30", "2025-03-01", 0, "start", "yyyymmdd"},
		{"non-leap february", "2025-01-01", "2025-02-29", 0, "end", "yyyymmdd"},
		{"timestamp", "2025-01-01T00:00:00Z", "2025-01-02", 0, "start", "yyyymmdd"},
		{"unpadded", "2025-1-1", "2025-01-02", 0, "start", "yyyymmdd"},
		{"end before start", "2025-03-10", "2025-03-09", 0, "end", "gtedate"},
		{"span over cap", "2025-01-01", "2025-02-01", 31, "end", "max_span"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange(tt.start, tt.end, tt.maxDays)
			if err == nil {
				t.Fatalf("ValidateRange(%q, %q) = nil, want error", tt.start, tt.end)
			}

			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors (%v), want 1", len(errs), err)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestValidateRange_BothInvalid(t *testing.T) {
	err := ValidateRange("yesterday", "today", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("got %d errors, want 2", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "start:") || !strings.Contains(apiErr.Message, "end:") {
		t.Errorf("Message = %q, want both fields listed", apiErr.Message)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("Details missing fields list")
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	err := ValidateRange("2025-03-10", "2025-03-01", 0)
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Message != "end must be on or after start" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "end" {
		t.Errorf("Details[field] = %v", apiErr.Details["field"])
	}
}

func TestToAPIError_Empty(t *testing.T) {
	ve := &RequestValidationError{}
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q", ve.Error())
	}
	if got := ve.ToAPIError(); got.Message != "Validation failed" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		start   string
		end     string
		maxDays int
		want    string
	}{
		{"", "2025-01-01", 0, "start is required"},
		{"2025-13-01", "2025-01-01", 0, "start must be a valid date in YYYY-MM-DD format"},
		{"2025-01-01", "2025-12-31", 90, "end must be within 90 days of start"},
	}

	for _, tt := range tests {
		err := ValidateRange(tt.start, tt.end, tt.maxDays)
		if err == nil {
			t.Errorf("ValidateRange(%q, %q) = nil", tt.start, tt.end)
			continue
		}
		if err.Error() != tt.want {
			t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
		}
	}
}
