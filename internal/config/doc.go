// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package config provides centralized configuration management for Funnelcast.

Configuration is layered with Koanf v2. Later sources override earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/funnelcast/config.yaml)
 3. Environment variables

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:3860)
  - HTTP_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT
  - ENVIRONMENT: development or production

Database:
  - DUCKDB_PATH (default: /data/funnelcast.duckdb)
  - DUCKDB_MAX_MEMORY, DUCKDB_THREADS
  - SEED_MOCK_DATA, SEED_DAYS, SEED_VISITORS
  - DB_BREAKER_MAX_REQUESTS, DB_BREAKER_INTERVAL, DB_BREAKER_TIMEOUT

Cache:
  - CACHE_BACKEND: memory, lfu, badger, valkey or none (default: memory)
  - CACHE_LAYER, CACHE_DEFAULT_TTL, CACHE_CLEANUP_INTERVAL, CACHE_LFU_CAPACITY
  - BADGER_PATH
  - VALKEY_ADDRESS, VALKEY_PASSWORD, VALKEY_DB

Admission:
  - ADMISSION_MAX_CONCURRENT (default: 20)
  - ADMISSION_THRESHOLD_YELLOW, ADMISSION_THRESHOLD_ORANGE, ADMISSION_THRESHOLD_RED (default: 10, 15, 18)
  - ADMISSION_MAX_QUEUE_WAIT (default: 30s)
  - ADMISSION_EMERGENCY_POLL, ADMISSION_HISTORY_WINDOW, ADMISSION_HISTORY_PRUNE_EVERY

Priority overrides are only read from the YAML file:

	admission:
	  priority_overrides:
	    - tag: aggregate.top_hotels
	      priority: MEDIUM

Security:
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS: comma-separated list
  - MAX_RANGE_DAYS: largest accepted date range

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
