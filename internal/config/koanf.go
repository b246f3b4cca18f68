// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/funnelcast/config.yaml",
	"/etc/funnelcast/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3860,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:               "/data/funnelcast.duckdb",
			MaxMemory:          "2GB",
			Threads:            0,
			SeedMockData:       false,
			SeedDays:           120,
			SeedVisitors:       200,
			BreakerMaxRequests: 3,
			BreakerInterval:    time.Minute,
			BreakerTimeout:     2 * time.Minute,
		},
		Cache: CacheConfig{
			Backend:         "memory",
			Layer:           "funnel",
			DefaultTTL:      5 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			LFUCapacity:     10000,
			BadgerPath:      "/data/rangecache",
			Valkey: ValkeyConfig{
				Address: "127.0.0.1:6379",
				DB:      0,
			},
		},
		Admission: AdmissionConfig{
			MaxConcurrent:     20,
			ThresholdYellow:   10,
			ThresholdOrange:   15,
			ThresholdRed:      18,
			MaxQueueWait:      30 * time.Second,
			EmergencyPoll:     10 * time.Millisecond,
			HistoryWindow:     5 * time.Minute,
			HistoryPruneEvery: time.Minute,
			PriorityOverrides: []PriorityOverride{},
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			MaxRangeDays:      732,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps flat environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Server mappings
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Database mappings
	"duckdb_path":             "database.path",
	"duckdb_max_memory":       "database.max_memory",
	"duckdb_threads":          "database.threads",
	"seed_mock_data":          "database.seed_mock_data",
	"seed_days":               "database.seed_days",
	"seed_visitors":           "database.seed_visitors",
	"db_breaker_max_requests": "database.breaker_max_requests",
	"db_breaker_interval":     "database.breaker_interval",
	"db_breaker_timeout":      "database.breaker_timeout",

	// Cache mappings
	"cache_backend":          "cache.backend",
	"cache_layer":            "cache.layer",
	"cache_default_ttl":      "cache.default_ttl",
	"cache_cleanup_interval": "cache.cleanup_interval",
	"cache_lfu_capacity":     "cache.lfu_capacity",
	"badger_path":            "cache.badger_path",
	"valkey_address":         "cache.valkey.address",
	"valkey_password":        "cache.valkey.password",
	"valkey_db":              "cache.valkey.db",

	// Admission mappings
	"admission_max_concurrent":      "admission.max_concurrent",
	"admission_threshold_yellow":    "admission.threshold_yellow",
	"admission_threshold_orange":    "admission.threshold_orange",
	"admission_threshold_red":       "admission.threshold_red",
	"admission_max_queue_wait":      "admission.max_queue_wait",
	"admission_emergency_poll":      "admission.emergency_poll",
	"admission_history_window":      "admission.history_window",
	"admission_history_prune_every": "admission.history_prune_every",

	// Security mappings
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"max_range_days":      "security.max_range_days",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - VALKEY_ADDRESS -> cache.valkey.address
//   - ADMISSION_MAX_CONCURRENT -> admission.max_concurrent
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables never leak into config
	return ""
}
