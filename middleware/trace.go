package middleware

import (
	"net/http"
	"time"

	"github.com/advdv/bweb"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const tracerName = "github.com/advdv/bweb/middleware"

// TraceOption configures [Trace].
type TraceOption func(*traceConfig)

type traceConfig struct {
	tp trace.TracerProvider
}

// WithTracerProvider records a span per request with the given provider.
func WithTracerProvider(tp trace.TracerProvider) TraceOption {
	return func(c *traceConfig) { c.tp = tp }
}

// Trace logs every request once it has been handled: method, path, matched route, status, elapsed
// time and request ID. Server errors log at error level, client errors at warn and everything else
// at info. With [WithTracerProvider] it also records a span around the rest of the chain: a server
// span, or an internal one when the context already carries a local server span.
func Trace(logs *zap.Logger, opts ...TraceOption) bweb.Middleware {
	cfg := traceConfig{tp: noop.NewTracerProvider()}
	for _, o := range opts {
		o(&cfg)
	}

	tracer := cfg.tp.Tracer(tracerName)

	return bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
		start := time.Now()

		// A local parent is the server span of an outer instrumentation layer. It gets the route and
		// this span becomes its child.
		parent := trace.SpanFromContext(r.Context())
		kind := trace.SpanKindServer
		if psc := parent.SpanContext(); psc.IsValid() && !psc.IsRemote() {
			kind = trace.SpanKindInternal
		} else {
			parent = nil
		}

		ctx, span := tracer.Start(r.Context(), r.Method(),
			trace.WithSpanKind(kind),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method()),
				attribute.String("url.path", r.Path()),
			))
		defer span.End()

		res, err := next.ServeBWeb(r.WithContext(ctx))
		status := StatusOf(res, err)

		if route := r.Route(); route != "" {
			span.SetName(r.Method() + " " + route)
			span.SetAttributes(attribute.String("http.route", route))

			if parent != nil {
				parent.SetAttributes(attribute.String("http.route", route))
			}
		}

		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if r.ID() != "" {
			span.SetAttributes(attribute.String("http.request.id", r.ID()))
		}

		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))

			if err != nil {
				span.RecordError(err)
			}
		}

		fields := []zap.Field{
			zap.String("method", r.Method()),
			zap.String("path", r.Path()),
			zap.String("route", r.Route()),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", r.ID()),
		}

		if sc := span.SpanContext(); sc.HasTraceID() {
			fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logs.Error("request", append(fields, zap.Error(err))...)
		case status >= http.StatusBadRequest:
			logs.Warn("request", fields...)
		default:
			logs.Info("request", fields...)
		}

		return res, err
	})
}

// StatusOf returns the status the dispatcher will answer with for what a handler returned.
func StatusOf(res *bweb.Response, err error) int {
	switch {
	case err != nil:
		if code := int(bweb.CodeOf(err)); code >= 400 && code <= 599 {
			return code
		}

		return http.StatusInternalServerError
	case res == nil:
		return http.StatusInternalServerError
	default:
		return res.Status
	}
}
