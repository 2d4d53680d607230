package storage

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("console-storage")

// traced wraps a Storage with one span per call
type traced struct {
	inner  Storage
	driver string
}

// WithTracing wraps s so every call is recorded as a span tagged with driver.
func WithTracing(s Storage, driver string) Storage {
	return &traced{inner: s, driver: driver}
}

func (t *traced) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "storage."+op,
		trace.WithAttributes(
			attribute.String("storage.driver", t.driver),
			attribute.String("storage.key", key),
		),
	)
}

func end(span trace.Span, err error) {
	// a missing key is an answer, not a failure
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *traced) GetItem(ctx context.Context, key string) (string, error) {
	ctx, span := t.start(ctx, "GetItem", key)
	v, err := t.inner.GetItem(ctx, key)
	span.SetAttributes(attribute.Bool("storage.found", err == nil))
	end(span, err)
	return v, err
}

func (t *traced) SetItem(ctx context.Context, key, value string) error {
	ctx, span := t.start(ctx, "SetItem", key)
	span.SetAttributes(attribute.Int("storage.value_size", len(value)))
	err := t.inner.SetItem(ctx, key, value)
	end(span, err)
	return err
}

func (t *traced) RemoveItem(ctx context.Context, key string) error {
	ctx, span := t.start(ctx, "RemoveItem", key)
	err := t.inner.RemoveItem(ctx, key)
	end(span, err)
	return err
}

func (t *traced) Ping(ctx context.Context) error {
	return t.inner.Ping(ctx)
}
