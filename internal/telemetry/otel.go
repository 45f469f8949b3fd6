package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	meterName  = "flagx"
	tracerName = "flagx"
)

// OTelProvider implements Provider using OpenTelemetry
type OTelProvider struct {
	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	cacheHits         metric.Int64Counter
	cacheMisses       metric.Int64Counter
	remoteEvaluations metric.Int64Counter
	remoteDuration    metric.Float64Histogram
	fallbacks         metric.Int64Counter
}

// NewOTel creates a new OpenTelemetry provider. Nil providers fall back to
// the global ones registered with otel.
func NewOTel(mp metric.MeterProvider, tp trace.TracerProvider) (*OTelProvider, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	provider := &OTelProvider{
		tracer: tp.Tracer(tracerName),
		meter:  mp.Meter(meterName),
	}

	if err := provider.initMetrics(); err != nil {
		return nil, err
	}

	return provider, nil
}

// initMetrics initializes all metrics
func (o *OTelProvider) initMetrics() error {
	var err error

	o.cacheHits, err = o.meter.Int64Counter(
		"flagx.cache.hits",
		metric.WithDescription("Number of flag lookups answered from the local cache"),
	)
	if err != nil {
		return err
	}

	o.cacheMisses, err = o.meter.Int64Counter(
		"flagx.cache.misses",
		metric.WithDescription("Number of flag lookups not found in the local cache"),
	)
	if err != nil {
		return err
	}

	o.remoteEvaluations, err = o.meter.Int64Counter(
		"flagx.remote.evaluations",
		metric.WithDescription("Number of remote evaluation calls by outcome"),
	)
	if err != nil {
		return err
	}

	o.remoteDuration, err = o.meter.Float64Histogram(
		"flagx.remote.duration",
		metric.WithDescription("Duration of remote evaluation calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	o.fallbacks, err = o.meter.Int64Counter(
		"flagx.fallbacks",
		metric.WithDescription("Number of lookups resolved to the fallback value"),
	)
	if err != nil {
		return err
	}

	return nil
}

// StartSpan creates a new trace span
func (o *OTelProvider) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	config := &SpanConfig{}
	for _, opt := range opts {
		opt(config)
	}

	ctx, otelSpan := o.tracer.Start(ctx, name,
		trace.WithAttributes(convertAttributes(config.Attributes)...))

	return ctx, &OTelSpan{span: otelSpan}
}

// convertAttribute converts our Attribute to OTel attribute
func convertAttribute(attr Attribute) attribute.KeyValue {
	switch v := attr.Value.(type) {
	case string:
		return attribute.String(attr.Key, v)
	case int:
		return attribute.Int(attr.Key, v)
	case int64:
		return attribute.Int64(attr.Key, v)
	case bool:
		return attribute.Bool(attr.Key, v)
	case float64:
		return attribute.Float64(attr.Key, v)
	default:
		return attribute.String(attr.Key, "")
	}
}

func convertAttributes(attrs []Attribute) []attribute.KeyValue {
	otelAttrs := make([]attribute.KeyValue, len(attrs))
	for i, attr := range attrs {
		otelAttrs[i] = convertAttribute(attr)
	}
	return otelAttrs
}

func (o *OTelProvider) RecordCacheHit(ctx context.Context, flagKey string) {
	o.cacheHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flag.key", flagKey),
	))
}

func (o *OTelProvider) RecordCacheMiss(ctx context.Context, flagKey string) {
	o.cacheMisses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flag.key", flagKey),
	))
}

// RecordRemoteEvaluation records one gateway call. outcome is "success" or a failure kind.
func (o *OTelProvider) RecordRemoteEvaluation(ctx context.Context, flagKey string, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("flag.key", flagKey),
		attribute.String("outcome", outcome),
	)
	o.remoteEvaluations.Add(ctx, 1, attrs)
	o.remoteDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (o *OTelProvider) RecordFallback(ctx context.Context, flagKey string, reason string) {
	o.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flag.key", flagKey),
		attribute.String("reason", reason),
	))
}

// Shutdown is a no-op; provider lifecycles belong to the host application.
func (o *OTelProvider) Shutdown(ctx context.Context) error {
	return nil
}

// OTelSpan wraps an OpenTelemetry span
type OTelSpan struct {
	span trace.Span
}

func (s *OTelSpan) End() {
	s.span.End()
}

func (s *OTelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(convertAttributes(attrs)...)
}

// RecordError records the error and marks the span as failed.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *OTelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(convertAttributes(attrs)...))
}
