package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestWithTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx := context.Background()
	s := WithTracing(NewMemory(), "memory")

	require.NoError(t, s.SetItem(ctx, "productFavorites", `{"1":true}`))
	v, err := s.GetItem(ctx, "productFavorites")
	require.NoError(t, err)
	assert.Equal(t, `{"1":true}`, v)

	_, err = s.GetItem(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "storage.SetItem", spans[0].Name())
	assert.Equal(t, "storage.GetItem", spans[1].Name())
	for _, span := range spans {
		assert.NotEqual(t, codes.Error, span.Status().Code)
	}
}
