package telemetry

import (
	"context"
	"time"
)

// NoOpProvider is a telemetry provider that does nothing
type NoOpProvider struct{}

// NewNoOp creates a new no-op telemetry provider
func NewNoOp() *NoOpProvider {
	return &NoOpProvider{}
}

func (n *NoOpProvider) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	return ctx, &NoOpSpan{}
}

func (n *NoOpProvider) RecordCacheHit(ctx context.Context, flagKey string)  {}
func (n *NoOpProvider) RecordCacheMiss(ctx context.Context, flagKey string) {}

func (n *NoOpProvider) RecordRemoteEvaluation(ctx context.Context, flagKey string, outcome string, duration time.Duration) {
}

func (n *NoOpProvider) RecordFallback(ctx context.Context, flagKey string, reason string) {}

func (n *NoOpProvider) Shutdown(ctx context.Context) error {
	return nil
}

// NoOpSpan is a span that does nothing
type NoOpSpan struct{}

func (n *NoOpSpan) End()                                     {}
func (n *NoOpSpan) SetAttributes(attrs ...Attribute)         {}
func (n *NoOpSpan) RecordError(err error)                    {}
func (n *NoOpSpan) AddEvent(name string, attrs ...Attribute) {}
