// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package main

import (
	"fmt"

	"github.com/tomtom215/funnelcast/internal/admission"
	"github.com/tomtom215/funnelcast/internal/cache"
	"github.com/tomtom215/funnelcast/internal/config"
)

// storeConfig maps the cache section onto the store factory configuration.
func storeConfig(c config.CacheConfig) cache.Config {
	return cache.Config{
		Backend:        cache.Backend(c.Backend),
		DefaultTTL:     c.DefaultTTL,
		Capacity:       c.LFUCapacity,
		BadgerPath:     c.BadgerPath,
		ValkeyAddress:  c.Valkey.Address,
		ValkeyPassword: c.Valkey.Password,
		ValkeyDB:       c.Valkey.DB,
	}
}

// admissionConfig maps the admission section onto the controller
// configuration. Zero values keep the controller defaults.
func admissionConfig(c config.AdmissionConfig) (admission.Config, error) {
	out := admission.DefaultConfig()
	if c.MaxConcurrent > 0 {
		out.MaxConcurrent = c.MaxConcurrent
	}
	if c.ThresholdYellow > 0 {
		out.ThresholdYellow = c.ThresholdYellow
	}
	if c.ThresholdOrange > 0 {
		out.ThresholdOrange = c.ThresholdOrange
	}
	if c.ThresholdRed > 0 {
		out.ThresholdRed = c.ThresholdRed
	}
	if c.MaxQueueWait > 0 {
		out.MaxQueueWait = c.MaxQueueWait
	}
	if c.EmergencyPoll > 0 {
		out.EmergencyPoll = c.EmergencyPoll
	}
	if c.HistoryWindow > 0 {
		out.HistoryWindow = c.HistoryWindow
	}

	if len(c.PriorityOverrides) > 0 {
		out.PriorityOverrides = make(map[string]admission.Priority, len(c.PriorityOverrides))
		for _, o := range c.PriorityOverrides {
			p, err := admission.ParsePriority(o.Priority)
			if err != nil {
				return admission.Config{}, fmt.Errorf("priority override for %q: %w", o.Tag, err)
			}
			out.PriorityOverrides[o.Tag] = p
		}
	}
	return out, nil
}
