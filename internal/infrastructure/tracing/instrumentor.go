package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentor opens one span per call, named "<component>.<operation>".
type Instrumentor struct {
	tracer    trace.Tracer
	component string
}

// NewInstrumentor creates an Instrumentor for a component.
func NewInstrumentor(tracer trace.Tracer, component string) *Instrumentor {
	return &Instrumentor{tracer: tracer, component: component}
}

// SpanName returns the span name used for an operation.
func (i *Instrumentor) SpanName(operation string) string {
	return i.component + "." + operation
}

// Call runs fn inside a span and returns its result unchanged. Errors are
// recorded with a stack trace and mark the span as failed. A panic is
// recorded and then re-raised after the span ends.
func Call[T any](ctx context.Context, i *Instrumentor, operation string, fn func(context.Context) (T, error), attrs ...attribute.KeyValue) (result T, err error) {
	ctx, span := i.tracer.Start(ctx, i.SpanName(operation), trace.WithAttributes(attrs...))
	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("panic: %v", r), trace.WithStackTrace(true))
			span.SetStatus(codes.Error, fmt.Sprint(r))
			span.End()
			panic(r)
		}
		if err != nil {
			span.RecordError(err, trace.WithStackTrace(true))
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return fn(ctx)
}

// Exec is Call for operations without a result.
func Exec(ctx context.Context, i *Instrumentor, operation string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	_, err := Call(ctx, i, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, attrs...)
	return err
}
