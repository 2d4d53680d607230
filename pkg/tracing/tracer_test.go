package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestConfig_Sampler(t *testing.T) {
	tid := trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	params := sdktrace.SamplingParameters{ParentContext: context.Background(), TraceID: tid, Name: "root"}

	assert.Equal(t, sdktrace.RecordAndSample, Config{SampleRatio: 1}.Sampler().ShouldSample(params).Decision)
	assert.Equal(t, sdktrace.RecordAndSample, Config{SampleRatio: 3}.Sampler().ShouldSample(params).Decision)
	assert.Equal(t, sdktrace.Drop, Config{SampleRatio: 0}.Sampler().ShouldSample(params).Decision)
	assert.Equal(t, sdktrace.Drop, Config{SampleRatio: 0.5}.Sampler().ShouldSample(params).Decision)
}

func TestConfig_Exporting(t *testing.T) {
	assert.True(t, Config{}.Exporting())
	assert.True(t, Config{Endpoint: DefaultJaegerEndpoint}.Exporting())
	assert.False(t, Config{Endpoint: "none"}.Exporting())
	assert.False(t, Config{Endpoint: "NONE"}.Exporting())
}

func TestInitTracer_WithoutExport(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tp, err := InitTracer(Config{ServiceName: "catalog-console-test", Version: "test", Endpoint: "none", SampleRatio: 1})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	assert.True(t, span.SpanContext().IsSampled())
	span.End()

	require.NoError(t, Shutdown(context.Background(), tp))
}
