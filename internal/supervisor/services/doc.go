// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

// Package services adapts long-running components to suture.Service.
//
//   - HTTPServerService: ListenAndServe with graceful Shutdown on cancel
//   - TickerService: a periodic housekeeping task, used by
//     NewHistoryPrunerService (admission duration history) and
//     NewCacheJanitorService (expired store entries, badger value log GC)
package services
