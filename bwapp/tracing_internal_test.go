package bwapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx/fxtest"
)

func TestNewExporter(t *testing.T) {
	t.Run("stdout exporter", func(t *testing.T) {
		exp, err := newExporter("stdout")
		require.NoError(t, err)
		require.NotNil(t, exp)
	})

	t.Run("none and empty disable exporting", func(t *testing.T) {
		for _, typ := range []string{"none", ""} {
			exp, err := newExporter(typ)
			require.NoError(t, err)
			require.Nil(t, exp)
		}
	})

	t.Run("unsupported exporter returns error", func(t *testing.T) {
		_, err := newExporter("xray")
		require.EqualError(t, err, `unsupported BW_OTEL_EXPORTER: "xray" (supported: stdout, none)`)
	})
}

func TestNewResource(t *testing.T) {
	res := newResource("my-service")

	var found bool
	for _, attr := range res.Attributes() {
		if string(attr.Key) == "service.name" && attr.Value.AsString() == "my-service" {
			found = true
		}
	}

	require.True(t, found, "expected service.name attribute in resource")
}

func TestNewTracerProvider(t *testing.T) {
	t.Run("stdout uses the sdk and shuts down on stop", func(t *testing.T) {
		lc := fxtest.NewLifecycle(t)

		tp, err := NewTracerProvider(lc, testEnv{BaseEnvironment{ServiceName: "svc", OtelExporter: "stdout"}})
		require.NoError(t, err)
		require.IsType(t, &sdktrace.TracerProvider{}, tp)

		lc.RequireStart()
		lc.RequireStop()
	})

	t.Run("none records nothing", func(t *testing.T) {
		tp, err := NewTracerProvider(fxtest.NewLifecycle(t), testEnv{BaseEnvironment{OtelExporter: "none"}})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)

		_, span := tp.Tracer("test").Start(ctx, "op")
		require.False(t, span.IsRecording())
	})

	t.Run("unsupported exporter fails", func(t *testing.T) {
		_, err := NewTracerProvider(fxtest.NewLifecycle(t), testEnv{BaseEnvironment{OtelExporter: "bogus"}})
		require.Error(t, err)
	})
}

func TestWithTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	var inner trace.SpanContext
	h := withTracing(tp, NewPropagator(), "svc", "/healthz")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("traces requests and continues the inbound trace", func(t *testing.T) {
		parent := "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("Traceparent", parent)
		h.ServeHTTP(httptest.NewRecorder(), req)

		spans := rec.Ended()
		require.Len(t, spans, 1)
		require.Equal(t, "GET /items", spans[0].Name())
		require.Equal(t, "0af7651916cd43dd8448eb211c80319c", spans[0].SpanContext().TraceID().String())
		require.Equal(t, spans[0].SpanContext().SpanID(), inner.SpanID())
	})

	t.Run("excluded paths are not traced", func(t *testing.T) {
		before := len(rec.Ended())
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Len(t, rec.Ended(), before)
	})
}

func TestNewPropagator(t *testing.T) {
	fields := NewPropagator().Fields()
	require.Contains(t, fields, "traceparent")
	require.Contains(t, fields, "baggage")

	var _ propagation.TextMapPropagator = NewPropagator()
}
