// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// Field tags are used by Koanf for unmarshaling from files and environment variables.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Admission AdmissionConfig `koanf:"admission"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, production
}

// DatabaseConfig holds DuckDB settings for the booking event table.
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"` // 0 = runtime.NumCPU()
	SeedMockData bool   `koanf:"seed_mock_data"`
	SeedDays     int    `koanf:"seed_days"`
	SeedVisitors int    `koanf:"seed_visitors"` // visitors per day

	// Circuit breaker around every query
	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig selects and tunes the key-value store behind the range cache.
type CacheConfig struct {
	// Backend is one of: memory, lfu, badger, valkey, none
	Backend string `koanf:"backend"`

	// Layer prefixes every cache key so several deployments can share a store
	Layer string `koanf:"layer"`

	// Memory backends
	DefaultTTL      time.Duration `koanf:"default_ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	LFUCapacity     int           `koanf:"lfu_capacity"`

	// Badger backend
	BadgerPath string `koanf:"badger_path"`

	// Valkey backend
	Valkey ValkeyConfig `koanf:"valkey"`
}

// ValkeyConfig holds connection settings for an external Valkey/Redis store.
type ValkeyConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// AdmissionConfig holds the connection-pool admission controller settings.
type AdmissionConfig struct {
	MaxConcurrent int `koanf:"max_concurrent"`

	// Scaling level thresholds: GREEN <= T1 < YELLOW <= T2 < ORANGE <= T3 < RED
	ThresholdYellow int `koanf:"threshold_yellow"`
	ThresholdOrange int `koanf:"threshold_orange"`
	ThresholdRed    int `koanf:"threshold_red"`

	MaxQueueWait      time.Duration `koanf:"max_queue_wait"`
	EmergencyPoll     time.Duration `koanf:"emergency_poll"`
	HistoryWindow     time.Duration `koanf:"history_window"`
	HistoryPruneEvery time.Duration `koanf:"history_prune_every"`

	PriorityOverrides []PriorityOverride `koanf:"priority_overrides"`
}

// PriorityOverride assigns an admission priority to an operation tag.
// Tags contain dots, so overrides are a list rather than a map keyed by tag.
type PriorityOverride struct {
	Tag      string `koanf:"tag"`
	Priority string `koanf:"priority"` // CRITICAL, HIGH, MEDIUM, LOW
}

// SecurityConfig holds HTTP-facing protection settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	MaxRangeDays      int           `koanf:"max_range_days"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and
// environment variables, in that order of precedence.
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
