// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateAdmission(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("ENVIRONMENT must be one of: development, production")
	}
	return nil
}

// validateDatabase validates DuckDB configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	if c.Database.SeedMockData && (c.Database.SeedDays < 1 || c.Database.SeedVisitors < 1) {
		return fmt.Errorf("SEED_DAYS and SEED_VISITORS must be positive when SEED_MOCK_DATA is enabled")
	}
	return nil
}

// validCacheBackends defines the allowed key-value store backends
var validCacheBackends = map[string]bool{
	"memory": true,
	"lfu":    true,
	"badger": true,
	"valkey": true,
	"none":   true,
}

// validateCache validates the key-value store configuration
func (c *Config) validateCache() error {
	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, lfu, badger, valkey, none")
	}

	switch c.Cache.Backend {
	case "lfu":
		if c.Cache.LFUCapacity < 1 {
			return fmt.Errorf("CACHE_LFU_CAPACITY must be positive for the lfu backend")
		}
	case "badger":
		if c.Cache.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for the badger backend")
		}
	case "valkey":
		if c.Cache.Valkey.Address == "" {
			return fmt.Errorf("VALKEY_ADDRESS is required for the valkey backend")
		}
	}
	return nil
}

// validPriorities defines the allowed admission priority names
var validPriorities = map[string]bool{
	"CRITICAL": true,
	"HIGH":     true,
	"MEDIUM":   true,
	"LOW":      true,
}

// validateAdmission validates the admission controller thresholds.
// Thresholds must satisfy 0 < yellow < orange < red <= max_concurrent.
func (c *Config) validateAdmission() error {
	a := c.Admission
	if a.MaxConcurrent < 1 {
		return fmt.Errorf("ADMISSION_MAX_CONCURRENT must be positive")
	}
	if a.ThresholdYellow < 1 || a.ThresholdYellow >= a.ThresholdOrange ||
		a.ThresholdOrange >= a.ThresholdRed || a.ThresholdRed > a.MaxConcurrent {
		return fmt.Errorf("admission thresholds must satisfy 0 < yellow (%d) < orange (%d) < red (%d) <= max_concurrent (%d)",
			a.ThresholdYellow, a.ThresholdOrange, a.ThresholdRed, a.MaxConcurrent)
	}
	if a.MaxQueueWait < 0 {
		return fmt.Errorf("ADMISSION_MAX_QUEUE_WAIT must not be negative")
	}
	if a.EmergencyPoll <= 0 || a.EmergencyPoll > time.Second {
		return fmt.Errorf("ADMISSION_EMERGENCY_POLL must be between 1ns and 1s")
	}
	if a.HistoryWindow <= 0 || a.HistoryPruneEvery <= 0 {
		return fmt.Errorf("admission history window and prune interval must be positive")
	}
	for _, o := range a.PriorityOverrides {
		if o.Tag == "" {
			return fmt.Errorf("admission priority override requires a tag")
		}
		if !validPriorities[strings.ToUpper(o.Priority)] {
			return fmt.Errorf("admission priority override for %q must be one of: CRITICAL, HIGH, MEDIUM, LOW", o.Tag)
		}
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateSecurity validates rate limiting and range bounds
func (c *Config) validateSecurity() error {
	if c.Security.MaxRangeDays < 1 {
		return fmt.Errorf("MAX_RANGE_DAYS must be positive")
	}

	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// ShouldWarnAboutCORS returns true if a production deployment allows any origin
func (c *Config) ShouldWarnAboutCORS() bool {
	if !c.IsProduction() {
		return false
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
