// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package rangecache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/funnelcast/internal/cache"
	"github.com/tomtom215/funnelcast/internal/logging"
	"github.com/tomtom215/funnelcast/internal/metrics"
	"github.com/tomtom215/funnelcast/internal/models"
)

// ComputeFunc computes a result for [start, end] from the data source.
// It must be idempotent and side-effect free.
type ComputeFunc func(ctx context.Context, start, end time.Time) (models.Result, error)

// Gate admits backend work. *admission.Controller implements it.
type Gate interface {
	Run(ctx context.Context, tag string, fn func(ctx context.Context) error) error
}

// DefaultComputeTimeout bounds a shared compute once it no longer follows
// any caller's context.
const DefaultComputeTimeout = time.Minute

// ErrInvalidRange is returned for a request whose end is before its start.
var ErrInvalidRange = errors.New("range end is before range start")

// errResultFailed marks a success:false result inside the gate so the
// operation is counted as failed
var errResultFailed = errors.New("compute returned a failed result")

// Lookup outcomes, used as metric labels
const (
	OutcomeExactHit    = "exact_hit"
	OutcomeChunkHit    = "chunk_hit"
	OutcomePartialMiss = "partial_miss"
	OutcomeFullMiss    = "full_miss"
)

// Request describes one range lookup.
type Request struct {
	// Layer namespaces keys (e.g. "funnel")
	Layer string
	// Endpoint names the computation (e.g. "revenue")
	Endpoint string
	Start    time.Time
	End      time.Time
	// Params are extra key components, sorted before use
	Params map[string]string
	Kind   models.Kind
	// Tag is the admission tag for the compute call
	Tag string
}

// Stats counts lookup outcomes since startup.
type Stats struct {
	ExactHits       int64 `json:"exact_hits"`
	ChunkHits       int64 `json:"chunk_hits"`
	PartialMisses   int64 `json:"partial_misses"`
	FullMisses      int64 `json:"full_misses"`
	StoreErrors     int64 `json:"store_errors"`
	ComputeFailures int64 `json:"compute_failures"`
	Coalesced       int64 `json:"coalesced"`
	EntriesWritten  int64 `json:"entries_written"`
}

// Cache is a date-range cache that stores each computed result under an
// exact-range key and under one key per calendar month of the range.
//
// A later request for a different range whose months are all cached is
// answered from those chunks without touching the data source.
type Cache struct {
	store   cache.Store
	backend string
	gate    Gate
	group   singleflight.Group
	now     func() time.Time

	computeTimeout time.Duration

	exactHits       atomic.Int64
	chunkHits       atomic.Int64
	partialMisses   atomic.Int64
	fullMisses      atomic.Int64
	storeErrors     atomic.Int64
	computeFailures atomic.Int64
	coalesced       atomic.Int64
	entriesWritten  atomic.Int64
}

// New creates a range cache over store. A nil gate runs computes directly.
func New(store cache.Store, gate Gate) *Cache {
	if store == nil {
		store = cache.NoopStore{}
	}
	return &Cache{
		store:   store,
		backend: string(cache.BackendOf(store)),
		gate:    gate,
		now:     time.Now,

		computeTimeout: DefaultComputeTimeout,
	}
}

// SetComputeTimeout changes the bound on a shared compute, gate wait
// included. Non-positive values are ignored.
func (c *Cache) SetComputeTimeout(d time.Duration) {
	if d > 0 {
		c.computeTimeout = d
	}
}

// GetOrCompute returns the result for req, from cache when possible.
//
// Lookup order is the exact-range key, then every month chunk. When all
// chunks are cached the result is assembled from them; otherwise compute
// runs once over the whole range and the result is written back under
// every chunk key plus the exact key. Failed results are returned but
// never cached. Store errors are logged and treated as misses.
func (c *Cache) GetOrCompute(ctx context.Context, req Request, compute ComputeFunc) (models.Result, error) {
	req.Start, req.End = truncateDay(req.Start), truncateDay(req.End)
	if req.End.Before(req.Start) {
		return models.Result{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			req.Start.Format(models.DateLayout), req.End.Format(models.DateLayout))
	}

	exactKey := c.exactKey(req)
	if e, ok := c.load(ctx, exactKey); ok && e.Payload.Success {
		c.exactHits.Add(1)
		metrics.RecordRangeCacheLookup(req.Endpoint, OutcomeExactHit)
		r := e.Payload.Clone()
		r.Cached = true
		return r.WithRange(req.Start, req.End), nil
	}

	chunks := SplitMonths(req.Start, req.End)
	cached := make([]Entry, 0, len(chunks))
	for _, ch := range chunks {
		if e, ok := c.load(ctx, c.chunkKey(req, ch)); ok {
			cached = append(cached, e)
		}
	}

	missing := len(chunks) - len(cached)
	if missing == 0 && len(cached) > 0 {
		r := aggregateChunks(req.Start, req.End, req.Kind, cached)
		if r.Success {
			c.chunkHits.Add(1)
			metrics.RecordRangeCacheLookup(req.Endpoint, OutcomeChunkHit)
			r.Cached = true
			return r.WithRange(req.Start, req.End), nil
		}
		logging.Ctx(ctx).Debug().
			Str("endpoint", req.Endpoint).
			Str("note", r.Note).
			Msg("Chunk aggregation failed, recomputing")
	}

	if len(cached) > 0 {
		c.partialMisses.Add(1)
		metrics.RecordRangeCacheLookup(req.Endpoint, OutcomePartialMiss)
	} else {
		c.fullMisses.Add(1)
		metrics.RecordRangeCacheLookup(req.Endpoint, OutcomeFullMiss)
	}

	// The shared compute outlives any single caller: it runs detached from
	// the caller that started it and each caller waits on its own ctx.
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(exactKey, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(detached, c.computeTimeout)
		defer cancel()
		return c.computeAndStore(cctx, req, chunks, compute)
	})

	select {
	case <-ctx.Done():
		return models.Result{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.coalesced.Add(1)
			metrics.RangeCacheCoalesced.Inc()
		}
		if res.Err != nil {
			return models.Result{}, res.Err
		}
		r := res.Val.(models.Result).Clone()
		return r.WithRange(req.Start, req.End), nil
	}
}

// Stats returns a snapshot of lookup counters.
func (c *Cache) Stats() Stats {
	return Stats{
		ExactHits:       c.exactHits.Load(),
		ChunkHits:       c.chunkHits.Load(),
		PartialMisses:   c.partialMisses.Load(),
		FullMisses:      c.fullMisses.Load(),
		StoreErrors:     c.storeErrors.Load(),
		ComputeFailures: c.computeFailures.Load(),
		Coalesced:       c.coalesced.Load(),
		EntriesWritten:  c.entriesWritten.Load(),
	}
}

// Store returns the underlying key-value store.
func (c *Cache) Store() cache.Store {
	return c.store
}

// computeAndStore runs compute through the gate over the whole range and
// writes the result back on success
func (c *Cache) computeAndStore(ctx context.Context, req Request, chunks []MonthChunk, compute ComputeFunc) (models.Result, error) {
	var result models.Result
	run := func(ctx context.Context) error {
		r, err := compute(ctx, req.Start, req.End)
		if err != nil {
			return err
		}
		result = r
		if !r.Success {
			return errResultFailed
		}
		return nil
	}

	var err error
	if c.gate != nil {
		err = c.gate.Run(ctx, req.Tag, run)
	} else {
		err = run(ctx)
	}

	switch {
	case errors.Is(err, errResultFailed):
		c.computeFailures.Add(1)
		metrics.RangeCacheComputeFailures.WithLabelValues(req.Endpoint).Inc()
		return result, nil
	case err != nil:
		c.computeFailures.Add(1)
		metrics.RangeCacheComputeFailures.WithLabelValues(req.Endpoint).Inc()
		return models.Result{}, err
	}

	if result.Kind == "" {
		result.Kind = req.Kind
	}
	result.Cached = false
	result.Aggregated = nil
	result.ChunksUsed = 0
	result.ChunkInfo = nil

	c.writeBack(ctx, req, chunks, result)
	return result, nil
}

// writeBack stores one entry per chunk plus the exact-range entry. Each
// entry gets a TTL from its own span.
func (c *Cache) writeBack(ctx context.Context, req Request, chunks []MonthChunk, result models.Result) {
	now := c.now()
	written := 0

	for _, ch := range chunks {
		ttl := CalculateTTL(ch.ActualStart, ch.ActualEnd, now)
		e := Entry{
			Key:     c.chunkKey(req, ch),
			Payload: result,
			ChunkInfo: &models.ChunkInfo{
				ActualStart: ch.ActualStart,
				ActualEnd:   ch.ActualEnd,
				CachedAt:    now,
			},
			TTLSeconds: int64(ttl / time.Second),
		}
		if c.save(ctx, e, ttl) {
			written++
		}
	}

	ttl := CalculateTTL(req.Start, req.End, now)
	exact := Entry{
		Key:        c.exactKey(req),
		Payload:    result,
		TTLSeconds: int64(ttl / time.Second),
	}
	exactWritten := c.save(ctx, exact, ttl)

	if exactWritten {
		metrics.RecordRangeCacheWrite(written)
		c.entriesWritten.Add(int64(written + 1))
	} else {
		metrics.RangeCacheEntriesWritten.WithLabelValues("chunk").Add(float64(written))
		c.entriesWritten.Add(int64(written))
	}
}

// load reads and decodes one entry. Any failure is a miss.
func (c *Cache) load(ctx context.Context, key string) (Entry, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.storeFailure(ctx, "get", key, err)
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.storeFailure(ctx, "decode", key, err)
		return Entry{}, false
	}
	return e, true
}

// save encodes and writes one entry, reporting whether it was stored
func (c *Cache) save(ctx context.Context, e Entry, ttl time.Duration) bool {
	data, err := json.Marshal(e)
	if err != nil {
		c.storeFailure(ctx, "encode", e.Key, err)
		return false
	}
	if err := c.store.SetWithTTL(ctx, e.Key, data, ttl); err != nil {
		c.storeFailure(ctx, "set", e.Key, err)
		return false
	}
	return true
}

func (c *Cache) storeFailure(ctx context.Context, op, key string, err error) {
	c.storeErrors.Add(1)
	metrics.RecordCacheStoreError(c.backend, op)
	logging.Ctx(ctx).Warn().
		Err(err).
		Str("backend", c.backend).
		Str("operation", op).
		Str("key", key).
		Msg("Cache store unavailable, bypassing")
}

// exactKey is {layer}:{endpoint}:{start}:{end}[:{params}]
func (c *Cache) exactKey(req Request) string {
	return keyWithParams(fmt.Sprintf("%s:%s:%s:%s", req.Layer, req.Endpoint,
		req.Start.Format(models.DateLayout), req.End.Format(models.DateLayout)), req.Params)
}

// chunkKey is {layer}:{endpoint}:chunk:{YYYY-MM}[:{params}]
func (c *Cache) chunkKey(req Request, ch MonthChunk) string {
	return keyWithParams(fmt.Sprintf("%s:%s:chunk:%s", req.Layer, req.Endpoint, ch.ID()), req.Params)
}

// keyWithParams appends a stable hash of the sorted params
func keyWithParams(base string, params map[string]string) string {
	if len(params) == 0 {
		return base
	}
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return cache.GenerateKey(base, strings.Join(pairs, "&"))
}
