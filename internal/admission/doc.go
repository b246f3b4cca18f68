// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package admission bounds concurrent DuckDB work with priority queuing.

A single Controller is constructed at startup and shared by every caller
that touches the backend. Each operation carries a tag which maps to a
priority:

	system.*, health.*   CRITICAL   readiness probes
	metric.*             HIGH       single-value reads
	chart.*              MEDIUM     daily series
	aggregate.*          LOW        heavy grouped reads
	anything else        MEDIUM

Exact tags can be re-prioritized with Config.PriorityOverrides.

# Load Levels

The active operation count maps to a level through three thresholds:

	GREEN   active <= ThresholdYellow   admit everything
	YELLOW  active <= ThresholdOrange   queue LOW
	ORANGE  active <= ThresholdRed      queue MEDIUM and LOW
	RED     above                       queue everything except CRITICAL

The decision is made once, on entry. Queued operations wait on a channel
and are released one per AfterOperation, highest priority first and FIFO
within a priority. The finishing operation hands its slot straight to the
released waiter, so a later arrival cannot take it first. LOW work may
starve under sustained load.

An operation admitted without queuing while every slot is taken polls
every EmergencyPoll until a slot frees. Each such event is counted; the
warning log is rate limited.

# Deadlines

Waiting, queued or polling, ends after MaxQueueWait or when the caller's
context ends. BeforeOperation then returns an error wrapping
ErrQueueTimeout, and the API answers 503. A waiter that gives up after
being released returns its slot and hands the release to the next waiter.

# Usage

	ctrl := admission.NewController(admission.DefaultConfig())

	err := ctrl.Run(ctx, "metric.revenue", func(ctx context.Context) error {
	    return db.QueryRevenue(ctx, start, end)
	})

Stats returns counters, queue depths and p50/p95 over the recent history
window. PruneHistory is called by a supervised service.
*/
package admission
