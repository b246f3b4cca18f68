// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package main

import (
	"testing"
	"time"

	"github.com/tomtom215/funnelcast/internal/admission"
	"github.com/tomtom215/funnelcast/internal/cache"
	"github.com/tomtom215/funnelcast/internal/config"
)

func TestAdmissionConfig(t *testing.T) {
	t.Run("zero values keep defaults", func(t *testing.T) {
		got, err := admissionConfig(config.AdmissionConfig{})
		if err != nil {
			t.Fatal(err)
		}
		want := admission.DefaultConfig()
		if got.MaxConcurrent != want.MaxConcurrent || got.MaxQueueWait != want.MaxQueueWait {
			t.Errorf("got %+v, want defaults %+v", got, want)
		}
		if got.PriorityOverrides != nil {
			t.Errorf("overrides = %v, want nil", got.PriorityOverrides)
		}
	})

	t.Run("overrides are parsed", func(t *testing.T) {
		got, err := admissionConfig(config.AdmissionConfig{
			MaxConcurrent: 8,
			MaxQueueWait:  5 * time.Second,
			PriorityOverrides: []config.PriorityOverride{
				{Tag: "funnel.top_hotels", Priority: "LOW"},
				{Tag: "funnel.revenue", Priority: "critical"},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		if got.MaxConcurrent != 8 || got.MaxQueueWait != 5*time.Second {
			t.Errorf("got %+v", got)
		}
		if got.PriorityOverrides["funnel.top_hotels"] != admission.PriorityLow {
			t.Errorf("top_hotels = %v, want low", got.PriorityOverrides["funnel.top_hotels"])
		}
		if got.PriorityOverrides["funnel.revenue"] != admission.PriorityCritical {
			t.Errorf("revenue = %v, want critical", got.PriorityOverrides["funnel.revenue"])
		}
	})

	t.Run("bad priority is rejected", func(t *testing.T) {
		_, err := admissionConfig(config.AdmissionConfig{
			PriorityOverrides: []config.PriorityOverride{{Tag: "x", Priority: "urgent"}},
		})
		if err == nil {
			t.Fatal("expected error for unknown priority")
		}
	})
}

func TestStoreConfig(t *testing.T) {
	got := storeConfig(config.CacheConfig{
		Backend:     "lfu",
		DefaultTTL:  time.Hour,
		LFUCapacity: 500,
		Valkey:      config.ValkeyConfig{Address: "valkey:6379", DB: 2},
	})
	if got.Backend != cache.BackendLFU || got.Capacity != 500 || got.DefaultTTL != time.Hour {
		t.Errorf("got %+v", got)
	}
	if got.ValkeyAddress != "valkey:6379" || got.ValkeyDB != 2 {
		t.Errorf("valkey settings not carried: %+v", got)
	}
}
