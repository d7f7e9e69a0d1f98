package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		Tracer = previous
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestSpans(t *testing.T) {
	recorder := recordSpans(t)

	client, ctx := NewClientSpan(context.Background(), "GET", "/admin/users/:id")
	inner, _ := NewSpan(ctx, "sandbox.execute USER_BAN")
	inner.SetError(errors.New("boom"))
	inner.End()
	client.AddAttributes(attribute.Int("http.response.status_code", 200))
	client.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "sandbox.execute USER_BAN", ended[0].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[0].SpanKind())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())

	assert.Equal(t, "admin GET /admin/users/:id", ended[1].Name())
	assert.Equal(t, trace.SpanKindClient, ended[1].SpanKind())
	assert.Contains(t, ended[1].Attributes(), attribute.Int("http.response.status_code", 200))
}
