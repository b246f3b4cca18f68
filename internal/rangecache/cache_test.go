// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package rangecache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/funnelcast/internal/cache"
	"github.com/tomtom215/funnelcast/internal/models"
)

// recordingStore wraps a memory store and remembers the TTL of every write
type recordingStore struct {
	*cache.MemoryStore
	mu   sync.Mutex
	ttls map[string]time.Duration
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		MemoryStore: cache.NewMemoryStore(time.Hour),
		ttls:        make(map[string]time.Duration),
	}
}

func (s *recordingStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.ttls[key] = ttl
	s.mu.Unlock()
	return s.MemoryStore.SetWithTTL(ctx, key, value, ttl)
}

func (s *recordingStore) keys() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Duration, len(s.ttls))
	for k, v := range s.ttls {
		out[k] = v
	}
	return out
}

// brokenStore fails every operation
type brokenStore struct{}

var errStoreDown = errors.New("connection refused")

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errStoreDown }
func (brokenStore) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return errStoreDown
}
func (brokenStore) Close() error { return nil }

// counter is a ComputeFunc returning a fixed result and counting calls
type counter struct {
	calls  atomic.Int64
	result models.Result
	err    error
}

func (c *counter) compute(context.Context, time.Time, time.Time) (models.Result, error) {
	c.calls.Add(1)
	return c.result, c.err
}

// recordingGate records the tags it admits
type recordingGate struct {
	mu   sync.Mutex
	tags []string
}

func (g *recordingGate) Run(ctx context.Context, tag string, fn func(context.Context) error) error {
	g.mu.Lock()
	g.tags = append(g.tags, tag)
	g.mu.Unlock()
	return fn(ctx)
}

func revenueRequest(start, end string) Request {
	return Request{
		Layer:    "funnel",
		Endpoint: "revenue",
		Start:    date(start),
		End:      date(end),
		Kind:     models.KindScalar,
		Tag:      "metric.revenue",
	}
}

func TestGetOrComputeIdempotent(t *testing.T) {
	ctx := context.Background()
	c := New(cache.NewMemoryStore(time.Hour), nil)
	src := &counter{result: models.NewScalar(1234.5)}
	req := revenueRequest("2025-01-01", "2025-01-31")

	first, err := c.GetOrCompute(ctx, req, src.compute)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Cached || first.Value != 1234.5 || first.RangeStart != "2025-01-01" {
		t.Errorf("unexpected first result %+v", first)
	}

	second, err := c.GetOrCompute(ctx, req, src.compute)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !second.Cached || second.Value != 1234.5 {
		t.Errorf("unexpected second result %+v", second)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("compute called %d times, want 1", n)
	}

	s := c.Stats()
	if s.ExactHits != 1 || s.FullMisses != 1 || s.EntriesWritten != 2 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestGetOrComputeThreeChunkScenario(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	c := New(store, nil)
	c.now = func() time.Time { return date("2025-03-12") }

	req := revenueRequest("2025-01-15", "2025-03-10")

	// Only February is cached beforehand
	feb := Entry{
		Key:     "funnel:revenue:chunk:2025-02",
		Payload: models.NewScalar(999),
		ChunkInfo: &models.ChunkInfo{
			ActualStart: date("2025-02-01"),
			ActualEnd:   date("2025-02-28"),
			CachedAt:    date("2025-03-01"),
		},
	}
	data, _ := json.Marshal(feb)
	_ = store.MemoryStore.SetWithTTL(ctx, feb.Key, data, time.Hour)

	src := &counter{result: models.NewScalar(5000)}
	r, err := c.GetOrCompute(ctx, req, src.compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if r.Value != 5000 || r.Cached {
		t.Errorf("expected fresh computed value, got %+v", r)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("compute called %d times, want 1", n)
	}
	if c.Stats().PartialMisses != 1 {
		t.Errorf("PartialMisses = %d, want 1", c.Stats().PartialMisses)
	}

	want := map[string]time.Duration{
		"funnel:revenue:chunk:2025-01":          12 * time.Hour,   // 17 days, ended 40 days ago
		"funnel:revenue:chunk:2025-02":          12 * time.Hour,   // 28 days, ended 12 days ago
		"funnel:revenue:chunk:2025-03":          30 * time.Minute, // 10 recent days
		"funnel:revenue:2025-01-15:2025-03-10": 60 * time.Minute, // 55 recent days
	}
	got := store.keys()
	if len(got) != len(want) {
		t.Fatalf("wrote %d entries, want %d: %v", len(got), len(want), got)
	}
	for key, ttl := range want {
		if got[key] != ttl {
			t.Errorf("TTL for %s = %v, want %v", key, got[key], ttl)
		}
	}

	// Chunk entries carry their own span
	raw, ok, _ := store.Get(ctx, "funnel:revenue:chunk:2025-01")
	if !ok {
		t.Fatal("January chunk missing")
	}
	var jan Entry
	if err := json.Unmarshal(raw, &jan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if jan.ChunkInfo == nil || !jan.ChunkInfo.ActualStart.Equal(date("2025-01-15")) ||
		!jan.ChunkInfo.ActualEnd.Equal(date("2025-01-31")) {
		t.Errorf("January chunk info = %+v", jan.ChunkInfo)
	}
	if jan.TTLSeconds != int64((12 * time.Hour).Seconds()) {
		t.Errorf("January TTLSeconds = %d", jan.TTLSeconds)
	}
}

func TestGetOrComputeServesFromChunks(t *testing.T) {
	ctx := context.Background()
	c := New(cache.NewMemoryStore(time.Hour), nil)
	src := &counter{result: models.NewScalar(42)}

	// Warm every month of Q1
	if _, err := c.GetOrCompute(ctx, revenueRequest("2025-01-01", "2025-03-31"), src.compute); err != nil {
		t.Fatalf("warm: %v", err)
	}

	r, err := c.GetOrCompute(ctx, revenueRequest("2025-01-15", "2025-03-10"), src.compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("compute called %d times, want 1", n)
	}
	if !r.Cached || r.ChunksUsed != 3 {
		t.Errorf("expected cached result from 3 chunks, got %+v", r)
	}
	if r.Aggregated == nil || *r.Aggregated {
		t.Errorf("scalar result from several chunks should be non-aggregated, got %v", r.Aggregated)
	}
	if r.RangeStart != "2025-01-15" || r.RangeEnd != "2025-03-10" {
		t.Errorf("range = %s..%s", r.RangeStart, r.RangeEnd)
	}
	if c.Stats().ChunkHits != 1 {
		t.Errorf("ChunkHits = %d, want 1", c.Stats().ChunkHits)
	}
}

func TestGetOrComputeSeriesFromChunks(t *testing.T) {
	ctx := context.Background()
	c := New(cache.NewMemoryStore(time.Hour), nil)
	src := &counter{result: models.NewSeries([]models.Point{{Label: "2025-01-01", Value: 3}})}

	req := revenueRequest("2025-01-01", "2025-02-28")
	req.Endpoint, req.Kind, req.Tag = "bookings_chart", models.KindSeries, "chart.bookings"
	if _, err := c.GetOrCompute(ctx, req, src.compute); err != nil {
		t.Fatalf("warm: %v", err)
	}

	req.Start, req.End = date("2025-01-10"), date("2025-02-20")
	r, err := c.GetOrCompute(ctx, req, src.compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if src.calls.Load() != 1 {
		t.Errorf("compute called %d times, want 1", src.calls.Load())
	}
	if r.Aggregated == nil || !*r.Aggregated || r.ChunksUsed != 2 || len(r.Series) != 1 {
		t.Errorf("unexpected series result %+v", r)
	}
}

func TestGetOrComputeFailuresNotCached(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	c := New(store, nil)
	req := revenueRequest("2025-01-01", "2025-01-31")

	failing := &counter{result: models.Failure("duckdb: table not found")}
	for i := 0; i < 2; i++ {
		r, err := c.GetOrCompute(ctx, req, failing.compute)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if r.Success || r.Error == "" {
			t.Errorf("call %d: expected failed result, got %+v", i, r)
		}
	}
	if failing.calls.Load() != 2 {
		t.Errorf("failed result was cached: compute called %d times", failing.calls.Load())
	}

	erroring := &counter{err: errors.New("query canceled")}
	if _, err := c.GetOrCompute(ctx, req, erroring.compute); err == nil {
		t.Error("expected compute error to propagate")
	}

	if n := len(store.keys()); n != 0 {
		t.Errorf("store has %d entries after failures, want 0", n)
	}
	if c.Stats().ComputeFailures != 3 {
		t.Errorf("ComputeFailures = %d, want 3", c.Stats().ComputeFailures)
	}
}

func TestGetOrComputeStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	c := New(brokenStore{}, nil)
	src := &counter{result: models.NewScalar(7)}
	req := revenueRequest("2025-01-01", "2025-02-15")

	for i := 0; i < 2; i++ {
		r, err := c.GetOrCompute(ctx, req, src.compute)
		if err != nil {
			t.Fatalf("call %d: store failure surfaced: %v", i, err)
		}
		if !r.Success || r.Value != 7 {
			t.Errorf("call %d: unexpected result %+v", i, r)
		}
	}
	if src.calls.Load() != 2 {
		t.Errorf("compute called %d times, want 2", src.calls.Load())
	}
	if c.Stats().StoreErrors == 0 {
		t.Error("expected store errors to be counted")
	}
}

func TestGetOrComputeCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(time.Hour)
	c := New(store, nil)
	req := revenueRequest("2025-01-01", "2025-01-31")

	_ = store.SetWithTTL(ctx, "funnel:revenue:2025-01-01:2025-01-31", []byte("{not json"), time.Hour)

	src := &counter{result: models.NewScalar(1)}
	r, err := c.GetOrCompute(ctx, req, src.compute)
	if err != nil || !r.Success {
		t.Fatalf("GetOrCompute = %+v, %v", r, err)
	}
	if src.calls.Load() != 1 {
		t.Errorf("compute called %d times, want 1", src.calls.Load())
	}
}

func TestGetOrComputeCoalescesMisses(t *testing.T) {
	ctx := context.Background()
	c := New(cache.NewMemoryStore(time.Hour), nil)
	req := revenueRequest("2025-01-01", "2025-01-31")

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	compute := func(context.Context, time.Time, time.Time) (models.Result, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return models.NewScalar(10), nil
	}

	var wg sync.WaitGroup
	results := make(chan models.Result, 5)
	run := func() {
		defer wg.Done()
		r, err := c.GetOrCompute(ctx, req, compute)
		if err != nil {
			t.Errorf("GetOrCompute: %v", err)
			return
		}
		results <- r
	}

	wg.Add(1)
	go run()
	<-started

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go run()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	if n := calls.Load(); n != 1 {
		t.Errorf("compute called %d times, want 1", n)
	}
	for r := range results {
		if r.Value != 10 {
			t.Errorf("unexpected result %+v", r)
		}
	}
	if c.Stats().Coalesced == 0 {
		t.Error("expected coalesced callers to be counted")
	}
}

// blockingCompute returns a ComputeFunc that signals started once, then
// waits for release or for its own ctx to end.
func blockingCompute(started chan<- struct{}, release <-chan struct{}) ComputeFunc {
	var once sync.Once
	return func(ctx context.Context, _, _ time.Time) (models.Result, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return models.NewScalar(10), nil
		case <-ctx.Done():
			return models.Result{}, ctx.Err()
		}
	}
}

func TestGetOrComputeLeaderCancelDoesNotFailFollowers(t *testing.T) {
	c := New(cache.NewMemoryStore(time.Hour), nil)
	req := revenueRequest("2025-01-01", "2025-01-31")
	started := make(chan struct{})
	release := make(chan struct{})
	compute := blockingCompute(started, release)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(leaderCtx, req, compute)
		leaderErr <- err
	}()
	<-started

	type outcome struct {
		r   models.Result
		err error
	}
	follower := make(chan outcome, 1)
	go func() {
		r, err := c.GetOrCompute(context.Background(), req, compute)
		follower <- outcome{r, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Errorf("leader err = %v, want context.Canceled", err)
	}

	close(release)
	select {
	case got := <-follower:
		if got.err != nil {
			t.Fatalf("follower err = %v, want nil", got.err)
		}
		if got.r.Value != 10 {
			t.Errorf("follower value = %v, want 10", got.r.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follower did not return")
	}
}

func TestGetOrComputeFollowerHonoursOwnDeadline(t *testing.T) {
	c := New(cache.NewMemoryStore(time.Hour), nil)
	req := revenueRequest("2025-01-01", "2025-01-31")
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	compute := blockingCompute(started, release)

	go func() { _, _ = c.GetOrCompute(context.Background(), req, compute) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	begin := time.Now()
	_, err := c.GetOrCompute(ctx, req, compute)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(begin); elapsed > 500*time.Millisecond {
		t.Errorf("follower returned after %v, want near its 20ms deadline", elapsed)
	}
}

func TestGetOrComputeComputeTimeout(t *testing.T) {
	c := New(cache.NewMemoryStore(time.Hour), nil)
	c.SetComputeTimeout(30 * time.Millisecond)
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	_, err := c.GetOrCompute(context.Background(), revenueRequest("2025-01-01", "2025-01-31"), blockingCompute(started, release))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if c.Stats().ComputeFailures != 1 {
		t.Errorf("ComputeFailures = %d, want 1", c.Stats().ComputeFailures)
	}
}

func TestGetOrComputeUsesGate(t *testing.T) {
	gate := &recordingGate{}
	c := New(cache.NewMemoryStore(time.Hour), gate)
	src := &counter{result: models.NewScalar(1)}

	if _, err := c.GetOrCompute(context.Background(), revenueRequest("2025-01-01", "2025-01-02"), src.compute); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if len(gate.tags) != 1 || gate.tags[0] != "metric.revenue" {
		t.Errorf("gate tags = %v", gate.tags)
	}
}

func TestGetOrComputeInvalidRange(t *testing.T) {
	c := New(nil, nil)
	src := &counter{result: models.NewScalar(1)}

	_, err := c.GetOrCompute(context.Background(), revenueRequest("2025-02-01", "2025-01-01"), src.compute)
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
	if src.calls.Load() != 0 {
		t.Error("compute should not run for an invalid range")
	}
}

func TestKeysIncludeParams(t *testing.T) {
	c := New(nil, nil)
	req := revenueRequest("2025-01-01", "2025-01-31")
	plain := c.exactKey(req)

	req.Params = map[string]string{"hotel": "h-17", "channel": "web"}
	withParams := c.exactKey(req)
	req.Params = map[string]string{"channel": "web", "hotel": "h-17"}
	reordered := c.exactKey(req)

	if plain == withParams {
		t.Error("params did not change the key")
	}
	if withParams != reordered {
		t.Errorf("param order changed the key: %s vs %s", withParams, reordered)
	}
	if !strings.HasPrefix(withParams, plain+":") {
		t.Errorf("key %q lost its readable prefix", withParams)
	}
}
