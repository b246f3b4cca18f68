// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package funnel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/funnelcast/internal/admission"
	"github.com/tomtom215/funnelcast/internal/logging"
	"github.com/tomtom215/funnelcast/internal/metrics"
	"github.com/tomtom215/funnelcast/internal/models"
	"github.com/tomtom215/funnelcast/internal/rangecache"
)

// DefaultLayer is the key namespace used when none is configured.
const DefaultLayer = "funnel"

var (
	// ErrUnknownMetric is returned for a metric name with no definition.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrInvalidDate is returned when a range bound is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrDuplicateMetric is returned when registering a name twice.
	ErrDuplicateMetric = errors.New("metric already registered")
)

// Definition binds a metric name to its computation.
//
// A base metric sets Tag and Compute and is served through the range cache.
// A derived metric sets Numerator and Denominator instead: both inputs are
// fetched through the facade and combined as Numerator / Denominator * Scale.
type Definition struct {
	Name    string
	Kind    models.Kind
	Tag     string
	Compute rangecache.ComputeFunc

	Numerator   string
	Denominator string
	Scale       float64
}

func (d Definition) derived() bool {
	return d.Compute == nil
}

// Classifier maps an admission tag to its priority.
// *admission.Controller implements it.
type Classifier interface {
	Classify(tag string) admission.Priority
}

// Facade maps metric names to range cache lookups.
type Facade struct {
	cache      *rangecache.Cache
	layer      string
	classifier Classifier

	order []string
	defs  map[string]Definition
}

// NewFacade creates an empty facade over rc. Use Register or
// NewBookingFacade to add metrics. classifier may be nil.
// Registration must finish before the first GetMetric call.
func NewFacade(rc *rangecache.Cache, layer string, classifier Classifier) *Facade {
	if layer == "" {
		layer = DefaultLayer
	}
	return &Facade{
		cache:      rc,
		layer:      layer,
		classifier: classifier,
		defs:       make(map[string]Definition),
	}
}

// Register adds a metric definition. Derived metrics must name inputs that
// are already registered.
func (f *Facade) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("metric name is required")
	}
	if _, exists := f.defs[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMetric, def.Name)
	}

	if def.derived() {
		for _, input := range []string{def.Numerator, def.Denominator} {
			if _, ok := f.defs[input]; !ok {
				return fmt.Errorf("derived metric %s: %w: %q", def.Name, ErrUnknownMetric, input)
			}
		}
		if def.Scale == 0 {
			def.Scale = 1
		}
		def.Kind = models.KindScalar
	} else if def.Tag == "" {
		return fmt.Errorf("metric %s: admission tag is required", def.Name)
	}

	if def.Kind == "" {
		def.Kind = models.KindScalar
	}

	f.defs[def.Name] = def
	f.order = append(f.order, def.Name)
	return nil
}

// GetMetric returns the named metric over the inclusive range
// [rangeStart, rangeEnd], both YYYY-MM-DD.
//
// A failed computation is returned as a Result with Success false and a nil
// error. Errors are reserved for unknown metrics, unparseable dates,
// admission timeouts and data source errors.
func (f *Facade) GetMetric(ctx context.Context, name, rangeStart, rangeEnd string) (models.Result, error) {
	def, ok := f.defs[name]
	if !ok {
		return models.Result{}, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}

	start, err := time.Parse(models.DateLayout, rangeStart)
	if err != nil {
		return models.Result{}, fmt.Errorf("%w: start %q", ErrInvalidDate, rangeStart)
	}
	end, err := time.Parse(models.DateLayout, rangeEnd)
	if err != nil {
		return models.Result{}, fmt.Errorf("%w: end %q", ErrInvalidDate, rangeEnd)
	}

	var result models.Result
	if def.derived() {
		result, err = f.derive(ctx, def, rangeStart, rangeEnd)
	} else {
		result, err = f.cache.GetOrCompute(ctx, rangecache.Request{
			Layer:    f.layer,
			Endpoint: def.Name,
			Start:    start,
			End:      end,
			Kind:     def.Kind,
			Tag:      def.Tag,
		}, def.Compute)
	}

	switch {
	case err != nil:
		metrics.RecordFunnelMetric(name, "error")
		logging.Ctx(ctx).Warn().Err(err).Str("metric", name).Str("start", rangeStart).Str("end", rangeEnd).Msg("Metric request failed")
		return models.Result{}, err
	case !result.Success:
		metrics.RecordFunnelMetric(name, "failure")
	default:
		metrics.RecordFunnelMetric(name, "success")
	}

	result.Metric = name
	if result.RangeStart == "" {
		result = result.WithRange(start, end)
	}
	return result, nil
}

// derive fetches both inputs in parallel and divides them. A zero
// denominator yields zero. A failed input is returned as the result.
func (f *Facade) derive(ctx context.Context, def Definition, rangeStart, rangeEnd string) (models.Result, error) {
	var num, den models.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		num, err = f.GetMetric(gctx, def.Numerator, rangeStart, rangeEnd)
		return err
	})
	g.Go(func() error {
		var err error
		den, err = f.GetMetric(gctx, def.Denominator, rangeStart, rangeEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Result{}, err
	}

	for _, input := range []models.Result{num, den} {
		if !input.Success {
			failed := models.Failure(input.Error)
			failed.Note = fmt.Sprintf("input %s failed", input.Metric)
			return failed, nil
		}
	}

	value := 0.0
	if den.Value != 0 {
		value = num.Value / den.Value * def.Scale
	}

	result := models.NewScalar(value)
	result.Cached = num.Cached && den.Cached
	return result, nil
}

// Metrics lists the registered metrics in registration order.
func (f *Facade) Metrics() []models.MetricInfo {
	out := make([]models.MetricInfo, 0, len(f.order))
	for _, name := range f.order {
		def := f.defs[name]
		info := models.MetricInfo{
			Name:    def.Name,
			Kind:    def.Kind,
			Tag:     def.Tag,
			Derived: def.derived(),
		}
		if !info.Derived && f.classifier != nil {
			info.Priority = f.classifier.Classify(def.Tag).String()
		}
		out = append(out, info)
	}
	return out
}

// Has reports whether name is a registered metric.
func (f *Facade) Has(name string) bool {
	_, ok := f.defs[name]
	return ok
}
