// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package api

import (
	"net/http"

	"github.com/tomtom215/funnelcast/internal/cache"
	"github.com/tomtom215/funnelcast/internal/rangecache"
)

// CacheStats combines range cache outcomes with the backing store's own
// counters when the store reports them.
type CacheStats struct {
	Backend    cache.Backend    `json:"backend"`
	RangeCache rangecache.Stats `json:"range_cache"`
	Store      *cache.Stats     `json:"store,omitempty"`
}

// AdmissionStats returns a snapshot of the admission controller.
func (h *Handler) AdmissionStats(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.admission.Stats())
}

// CacheStats returns range cache and store statistics.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats := CacheStats{Backend: cache.BackendNone}
	if h.rangeCache != nil {
		stats.RangeCache = h.rangeCache.Stats()
		store := h.rangeCache.Store()
		stats.Backend = cache.BackendOf(store)
		if sr, ok := store.(cache.StatsReporter); ok {
			s := sr.Stats()
			stats.Store = &s
		}
	}
	WriteSuccess(w, r, stats)
}
