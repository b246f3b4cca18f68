// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

//go:build integration

// Package testinfra provides Docker-backed fixtures for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/cache/...
//
// Tests skip rather than fail when Docker is unavailable.
package testinfra
