// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/funnelcast/internal/admission"
	"github.com/tomtom215/funnelcast/internal/cache"
	"github.com/tomtom215/funnelcast/internal/database"
	"github.com/tomtom215/funnelcast/internal/funnel"
	"github.com/tomtom215/funnelcast/internal/models"
	"github.com/tomtom215/funnelcast/internal/rangecache"
)

type fakeMetrics struct {
	result models.Result
	err    error
	calls  int
}

func (f *fakeMetrics) GetMetric(_ context.Context, name, start, end string) (models.Result, error) {
	f.calls++
	if f.err != nil {
		return models.Result{}, f.err
	}
	r := f.result
	r.Metric = name
	r.RangeStart = start
	r.RangeEnd = end
	return r, nil
}

func (f *fakeMetrics) Metrics() []models.MetricInfo {
	return []models.MetricInfo{
		{Name: "bookings", Kind: models.KindScalar, Priority: "medium"},
		{Name: "conversion_rate", Kind: models.KindScalar, Derived: true, Priority: "medium"},
	}
}

func (f *fakeMetrics) Has(name string) bool {
	return name == "bookings" || name == "conversion_rate"
}

type fakeAdmission struct {
	err  error
	tags []string
}

func (f *fakeAdmission) Run(ctx context.Context, tag string, fn func(ctx context.Context) error) error {
	f.tags = append(f.tags, tag)
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

func (f *fakeAdmission) Stats() admission.Stats {
	return admission.Stats{MaxConcurrent: 15, Level: "GREEN"}
}

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }
func (f *fakeDB) BreakerState() string       { return "closed" }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

type testEnv struct {
	metrics   *fakeMetrics
	admission *fakeAdmission
	db        *fakeDB
	router    http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		metrics:   &fakeMetrics{result: models.NewScalar(42)},
		admission: &fakeAdmission{},
		db:        &fakeDB{},
	}
	store := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	rc := rangecache.New(store, nil)

	h := NewHandler(env.metrics, env.admission, env.db, rc, 31)
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	env.router = NewRouter(h, cfg).SetupChi()
	return env
}

func (env *testEnv) get(t *testing.T, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s: %v (body %q)", path, err, rec.Body.String())
		}
	}
	return rec, body
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.get(t, "/api/v1/health/live")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !body.Success {
		t.Error("expected success")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request ID header")
	}
	if body.Meta == nil || body.Meta.RequestID != rec.Header().Get("X-Request-ID") {
		t.Error("meta request_id should echo the response header")
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		admErr     error
		pingErr    error
		wantStatus int
		wantDB     string
	}{
		{"ready", nil, nil, http.StatusOK, "ok"},
		{"ping fails", nil, errors.New("connection refused"), http.StatusServiceUnavailable, "unreachable"},
		{"admission timeout", admission.ErrQueueTimeout, nil, http.StatusServiceUnavailable, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.admission.err = tt.admErr
			env.db.pingErr = tt.pingErr

			rec, body := env.get(t, "/api/v1/health/ready")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var status ReadinessStatus
			raw := body.Data
			if body.Error != nil {
				detail, err := json.Marshal(body.Error.Details)
				if err != nil {
					t.Fatal(err)
				}
				raw = detail
			}
			if err := json.Unmarshal(raw, &status); err != nil {
				t.Fatalf("decode status: %v", err)
			}
			if status.Database != tt.wantDB {
				t.Errorf("database = %q, want %q", status.Database, tt.wantDB)
			}
			if status.Cache != string(cache.BackendMemory) {
				t.Errorf("cache = %q, want memory", status.Cache)
			}
			if len(env.admission.tags) != 1 || env.admission.tags[0] != TagHealth {
				t.Errorf("admission tags = %v, want [%s]", env.admission.tags, TagHealth)
			}
		})
	}
}

func TestHealthReadyTagIsCritical(t *testing.T) {
	c := admission.NewController(admission.DefaultConfig())
	if got := c.Classify(TagHealth); got != admission.PriorityCritical {
		t.Errorf("Classify(%q) = %v, want critical", TagHealth, got)
	}
}

func TestListMetrics(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.get(t, "/api/v1/metrics")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var infos []models.MetricInfo
	if err := json.Unmarshal(body.Data, &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[1].Name != "conversion_rate" || !infos[1].Derived {
		t.Errorf("catalogue = %+v", infos)
	}
}

func TestGetMetric_Success(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.get(t, "/api/v1/metrics/bookings?start=2025-01-15&end=2025-02-10")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result models.Result
	if err := json.Unmarshal(body.Data, &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.Value != 42 || result.Metric != "bookings" {
		t.Errorf("result = %+v", result)
	}
	if result.RangeStart != "2025-01-15" || result.RangeEnd != "2025-02-10" {
		t.Errorf("range = %s..%s", result.RangeStart, result.RangeEnd)
	}
}

func TestGetMetric_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"unknown metric", "/api/v1/metrics/nope?start=2025-01-01&end=2025-01-31", http.StatusNotFound, ErrCodeUnknownMetric},
		{"missing start", "/api/v1/metrics/bookings?end=2025-01-31", http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad date", "/api/v1/metrics/bookings?start=2025-13-01&end=2025-01-31", http.StatusBadRequest, ErrCodeValidationFailed},
		{"end before start", "/api/v1/metrics/bookings?start=2025-02-01&end=2025-01-31", http.StatusBadRequest, ErrCodeValidationFailed},
		{"span too long", "/api/v1/metrics/bookings?start=2025-01-01&end=2025-03-01", http.StatusBadRequest, ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec, body := env.get(t, tt.path)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body.Success || body.Error == nil || body.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", body.Error, tt.wantCode)
			}
			if env.metrics.calls != 0 {
				t.Errorf("GetMetric called %d times for a rejected request", env.metrics.calls)
			}
		})
	}
}

func TestGetMetric_ComputeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.metrics.result = models.Failure("duckdb: table missing")

	rec, body := env.get(t, "/api/v1/metrics/bookings?start=2025-01-01&end=2025-01-31")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if body.Error == nil || body.Error.Code != ErrCodeComputeFailed {
		t.Fatalf("error = %+v", body.Error)
	}
	details, ok := body.Error.Details.(map[string]interface{})
	if !ok || details["error"] != "duckdb: table missing" {
		t.Errorf("details = %#v, want failed result", body.Error.Details)
	}
}

func TestGetMetric_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantRetry  bool
	}{
		{"queue timeout", fmt.Errorf("bookings: %w", admission.ErrQueueTimeout), http.StatusServiceUnavailable, ErrCodeQueueTimeout, true},
		{"circuit open", errors.Join(database.ErrCircuitOpen, errors.New("open")), http.StatusServiceUnavailable, ErrCodeCircuitOpen, true},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout, true},
		{"invalid range", rangecache.ErrInvalidRange, http.StatusBadRequest, ErrCodeValidationFailed, false},
		{"unknown metric", funnel.ErrUnknownMetric, http.StatusNotFound, ErrCodeUnknownMetric, false},
		{"other", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.metrics.err = tt.err

			rec, body := env.get(t, "/api/v1/metrics/bookings?start=2025-01-01&end=2025-01-31")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body.Error == nil || body.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", body.Error, tt.wantCode)
			}
			if got := rec.Header().Get("Retry-After") != ""; got != tt.wantRetry {
				t.Errorf("Retry-After present = %v, want %v", got, tt.wantRetry)
			}
			if body.Error != nil && strings.Contains(body.Error.Message, "boom") {
				t.Error("internal error text leaked to client")
			}
		})
	}
}

func TestAdmissionStats(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.get(t, "/api/v1/admission/stats")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats admission.Stats
	if err := json.Unmarshal(body.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.MaxConcurrent != 15 || stats.Level != "GREEN" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheStats(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.get(t, "/api/v1/cache/stats")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats CacheStats
	if err := json.Unmarshal(body.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Backend != cache.BackendMemory {
		t.Errorf("backend = %q, want memory", stats.Backend)
	}
	if stats.Store == nil {
		t.Error("memory store should report its own stats")
	}
}

func TestCacheStats_NoRangeCache(t *testing.T) {
	h := NewHandler(&fakeMetrics{}, &fakeAdmission{}, &fakeDB{}, nil, 0)
	if h.maxRangeDays != defaultMaxRangeDays {
		t.Errorf("maxRangeDays = %d, want default %d", h.maxRangeDays, defaultMaxRangeDays)
	}

	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))

	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	var stats CacheStats
	if err := json.Unmarshal(body.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Backend != cache.BackendNone || stats.Store != nil {
		t.Errorf("stats = %+v, want empty none backend", stats)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.get(t, "/api/v1/health/live")

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("exposition should include API request counter")
	}
}

func TestNotFoundRoute(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.get(t, "/api/v2/nothing")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if body.Error == nil || body.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"revenue", "revenue"},
		{"a\nb", "a\\x0ab"},
		{"x\r\ty", "x\\x0d\\x09y"},
		{"del\x7f", "del\\x7f"},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
