// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package admission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/funnelcast/internal/logging"
	"github.com/tomtom215/funnelcast/internal/metrics"
)

// ErrQueueTimeout is returned by BeforeOperation when a queued operation is
// not admitted within MaxQueueWait or its context ends first.
var ErrQueueTimeout = errors.New("admission queue timeout")

// maxHistory bounds the recent-duration history between prunes
const maxHistory = 10000

// Config holds admission controller settings.
type Config struct {
	// MaxConcurrent is the ceiling on simultaneously admitted operations
	MaxConcurrent int

	// Level thresholds on the active count: GREEN <= ThresholdYellow,
	// YELLOW <= ThresholdOrange, ORANGE <= ThresholdRed, RED above
	ThresholdYellow int
	ThresholdOrange int
	ThresholdRed    int

	// MaxQueueWait bounds how long an operation may wait for admission
	MaxQueueWait time.Duration

	// EmergencyPoll is the poll interval used when an unqueued operation
	// finds every slot taken
	EmergencyPoll time.Duration

	// HistoryWindow is how long completed-operation durations are kept
	HistoryWindow time.Duration

	// PriorityOverrides maps exact operation tags to a priority
	PriorityOverrides map[string]Priority
}

// DefaultConfig returns the default controller settings.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:   20,
		ThresholdYellow: 10,
		ThresholdOrange: 15,
		ThresholdRed:    18,
		MaxQueueWait:    30 * time.Second,
		EmergencyPoll:   10 * time.Millisecond,
		HistoryWindow:   5 * time.Minute,
	}
}

// Token identifies an admitted operation. Pass it to AfterOperation.
type Token struct {
	ID       string
	Tag      string
	Priority Priority
	Start    time.Time
	Queued   bool
	Wait     time.Duration
}

// waiter is a queued operation. ready is closed exactly once on release.
type waiter struct {
	priority Priority
	enqueued time.Time
	ready    chan struct{}
	released bool
	wait     time.Duration
}

// sample is one completed operation in the recent history
type sample struct {
	at       time.Time
	duration time.Duration
	success  bool
}

// Controller bounds concurrent backend operations with priority queuing.
//
// Operations call BeforeOperation before touching the backend and
// AfterOperation when done. Depending on the current load level an
// operation is admitted at once or waits in the FIFO queue of its
// priority; each AfterOperation releases at most one waiter, highest
// priority first.
type Controller struct {
	mu  sync.Mutex
	cfg Config

	active int
	queues [numPriorities][]*waiter

	totalOps       int64
	errorCount     int64
	exhaustion     int64
	queueProcessed int64
	queueTimeouts  int64
	avgWait        time.Duration
	history        []sample

	exhaustLog rate.Sometimes
	now        func() time.Time
}

// NewController creates a controller. Zero-valued settings take defaults.
func NewController(cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.ThresholdYellow <= 0 || cfg.ThresholdOrange <= 0 || cfg.ThresholdRed <= 0 {
		cfg.ThresholdYellow = cfg.MaxConcurrent / 2
		cfg.ThresholdOrange = cfg.MaxConcurrent * 3 / 4
		cfg.ThresholdRed = cfg.MaxConcurrent * 9 / 10
	}
	if cfg.MaxQueueWait <= 0 {
		cfg.MaxQueueWait = def.MaxQueueWait
	}
	if cfg.EmergencyPoll <= 0 {
		cfg.EmergencyPoll = def.EmergencyPoll
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = def.HistoryWindow
	}

	c := &Controller{
		cfg:        cfg,
		exhaustLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
		now:        time.Now,
	}

	metrics.AdmissionMaxConcurrent.Set(float64(cfg.MaxConcurrent))
	c.publishLocked()
	return c
}

// Classify returns the priority of an operation tag.
func (c *Controller) Classify(tag string) Priority {
	return classify(tag, c.cfg.PriorityOverrides)
}

// LevelFor returns the load level for an active count.
func (c *Controller) LevelFor(active int) Level {
	switch {
	case active <= c.cfg.ThresholdYellow:
		return LevelGreen
	case active <= c.cfg.ThresholdOrange:
		return LevelYellow
	case active <= c.cfg.ThresholdRed:
		return LevelOrange
	default:
		return LevelRed
	}
}

// BeforeOperation admits an operation tagged tag, queuing it first when the
// current load level requires. It returns ErrQueueTimeout if the operation
// is not admitted within MaxQueueWait or ctx ends first.
func (c *Controller) BeforeOperation(ctx context.Context, tag string) (Token, error) {
	start := c.now()
	deadline := time.NewTimer(c.cfg.MaxQueueWait)
	defer deadline.Stop()

	c.mu.Lock()
	c.totalOps++
	p := c.Classify(tag)
	level := c.LevelFor(c.active)
	queued := shouldQueue(p, level)

	token := Token{ID: uuid.NewString(), Tag: tag, Priority: p, Queued: queued}
	metrics.RecordAdmissionEntry(p.String(), queued)

	if queued {
		w := &waiter{priority: p, enqueued: start, ready: make(chan struct{})}
		c.queues[p] = append(c.queues[p], w)
		c.publishLocked()
		c.mu.Unlock()

		logging.Ctx(ctx).Debug().
			Str("tag", tag).
			Str("priority", p.String()).
			Str("level", level.String()).
			Msg("[ADMISSION] Operation queued")

		select {
		case <-w.ready:
		case <-ctx.Done():
			return Token{}, c.abandon(w, fmt.Errorf("%w: %w", ErrQueueTimeout, ctx.Err()))
		case <-deadline.C:
			return Token{}, c.abandon(w, fmt.Errorf("%w after %s", ErrQueueTimeout, c.cfg.MaxQueueWait))
		}
		// The releasing operation handed its slot over; active already counts it.
		token.Wait = w.wait
		token.Start = c.now()
		return token, nil
	}

	// Emergency fallback: every slot is taken by admitted operations
	exhausted := false
	for c.active >= c.cfg.MaxConcurrent {
		if !exhausted {
			exhausted = true
			c.exhaustion++
			metrics.AdmissionExhaustion.Inc()
			active := c.active
			c.exhaustLog.Do(func() {
				logging.Warn().
					Int("active", active).
					Int("max_concurrent", c.cfg.MaxConcurrent).
					Str("tag", tag).
					Msg("[ADMISSION] Pool exhausted, polling for a free slot")
			})
		}
		c.mu.Unlock()

		select {
		case <-time.After(c.cfg.EmergencyPoll):
		case <-ctx.Done():
			c.recordTimeout(p)
			return Token{}, fmt.Errorf("%w: %w", ErrQueueTimeout, ctx.Err())
		case <-deadline.C:
			c.recordTimeout(p)
			return Token{}, fmt.Errorf("%w after %s", ErrQueueTimeout, c.cfg.MaxQueueWait)
		}

		c.mu.Lock()
	}

	c.active++
	token.Start = c.now()
	c.publishLocked()
	c.mu.Unlock()

	return token, nil
}

// AfterOperation marks an admitted operation finished and releases at most
// one queued operation.
func (c *Controller) AfterOperation(token Token, success bool) {
	now := c.now()
	duration := now.Sub(token.Start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active > 0 {
		c.active--
	}
	if !success {
		c.errorCount++
	}

	c.history = append(c.history, sample{at: now, duration: duration, success: success})
	if len(c.history) > maxHistory {
		c.history = append(c.history[:0:0], c.history[len(c.history)-maxHistory:]...)
	}

	metrics.RecordAdmissionCompletion(duration, success)
	c.releaseNextLocked()
	c.publishLocked()
}

// Run wraps fn in BeforeOperation and AfterOperation. fn's error marks the
// operation failed.
func (c *Controller) Run(ctx context.Context, tag string, fn func(ctx context.Context) error) error {
	token, err := c.BeforeOperation(ctx, tag)
	if err != nil {
		return err
	}
	err = fn(ctx)
	c.AfterOperation(token, err == nil)
	return err
}

// PruneHistory drops history older than the history window and returns
// the number of samples removed.
func (c *Controller) PruneHistory() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.cfg.HistoryWindow)
	i := sort.Search(len(c.history), func(i int) bool {
		return !c.history[i].at.Before(cutoff)
	})
	if i == 0 {
		return 0
	}
	c.history = append(c.history[:0:0], c.history[i:]...)
	return i
}

// Active returns the number of admitted operations.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Level returns the current load level.
func (c *Controller) Level() Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.LevelFor(c.active)
}

// releaseNextLocked pops the head of the highest-priority non-empty queue,
// reserves a slot for it and signals it. Nothing is released while the pool
// is full. Must be called with mu held.
func (c *Controller) releaseNextLocked() bool {
	if c.active >= c.cfg.MaxConcurrent {
		return false
	}
	for p := PriorityCritical; p <= PriorityLow; p++ {
		q := c.queues[p]
		if len(q) == 0 {
			continue
		}

		w := q[0]
		q[0] = nil
		c.queues[p] = q[1:]

		w.wait = c.now().Sub(w.enqueued)
		w.released = true

		c.queueProcessed++
		n := time.Duration(c.queueProcessed)
		c.avgWait = (c.avgWait*(n-1) + w.wait) / n

		c.active++
		metrics.RecordAdmissionRelease(p.String(), w.wait)
		close(w.ready)
		return true
	}
	return false
}

// abandon withdraws a waiter after its deadline or context ended. A waiter
// released in the meantime gives back its reserved slot and hands its
// release to the next one in line.
func (c *Controller) abandon(w *waiter, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w.released {
		c.active--
		c.releaseNextLocked()
	} else {
		q := c.queues[w.priority]
		for i, qw := range q {
			if qw == w {
				c.queues[w.priority] = append(q[:i], q[i+1:]...)
				break
			}
		}
	}

	c.queueTimeouts++
	metrics.RecordAdmissionTimeout(w.priority.String())
	c.publishLocked()

	logging.Warn().
		Str("priority", w.priority.String()).
		Dur("waited", c.now().Sub(w.enqueued)).
		Msg("[ADMISSION] Queued operation abandoned")
	return err
}

// recordTimeout counts an operation that gave up during the emergency poll
func (c *Controller) recordTimeout(p Priority) {
	c.mu.Lock()
	c.queueTimeouts++
	c.mu.Unlock()
	metrics.RecordAdmissionTimeout(p.String())
}

// publishLocked pushes current load to the Prometheus gauges
func (c *Controller) publishLocked() {
	depth := make(map[string]int, numPriorities)
	for p := PriorityCritical; p <= PriorityLow; p++ {
		depth[p.String()] = len(c.queues[p])
	}
	metrics.UpdateAdmissionGauges(c.active, int(c.LevelFor(c.active)), depth)
}
