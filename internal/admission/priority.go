// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package admission

import (
	"fmt"
	"strings"
)

// Priority ranks an operation for admission. Lower values are served first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

// numPriorities is the number of priority queues
const numPriorities = 4

// String returns the lowercase priority name used in logs and metric labels.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParsePriority parses a priority name, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return PriorityCritical, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return PriorityMedium, fmt.Errorf("invalid priority %q", s)
	}
}

// Level is a coarse classification of current backend load.
type Level int

const (
	LevelGreen Level = iota
	LevelYellow
	LevelOrange
	LevelRed
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelGreen:
		return "GREEN"
	case LevelYellow:
		return "YELLOW"
	case LevelOrange:
		return "ORANGE"
	case LevelRed:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// exactTags maps well-known operation tags to their priority.
var exactTags = map[string]Priority{
	"system.health": PriorityCritical,
	"system.ready":  PriorityCritical,
}

// tagPrefixes maps tag families to their priority. Checked in order.
var tagPrefixes = []struct {
	prefix   string
	priority Priority
}{
	{"system.", PriorityCritical},
	{"health.", PriorityCritical},
	{"metric.", PriorityHigh},
	{"chart.", PriorityMedium},
	{"aggregate.", PriorityLow},
}

// classify resolves a tag against overrides, then the built-in tables.
// Unknown tags are MEDIUM.
func classify(tag string, overrides map[string]Priority) Priority {
	if p, ok := overrides[tag]; ok {
		return p
	}
	if p, ok := exactTags[tag]; ok {
		return p
	}
	for _, tp := range tagPrefixes {
		if strings.HasPrefix(tag, tp.prefix) {
			return tp.priority
		}
	}
	return PriorityMedium
}

// shouldQueue reports whether an operation of priority p must wait in its
// queue at the given load level.
//
//	GREEN   never
//	YELLOW  LOW
//	ORANGE  MEDIUM, LOW
//	RED     everything except CRITICAL
func shouldQueue(p Priority, level Level) bool {
	switch level {
	case LevelGreen:
		return false
	case LevelYellow:
		return p == PriorityLow
	case LevelOrange:
		return p == PriorityMedium || p == PriorityLow
	case LevelRed:
		return p != PriorityCritical
	default:
		return false
	}
}
