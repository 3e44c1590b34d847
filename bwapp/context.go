package bwapp

import (
	"context"

	"github.com/advdv/bweb"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// requestLogger is the request-scoped logger kept in the request store.
type requestLogger struct{ *zap.Logger }

// withRequestLogger stores a logger carrying the request ID in every request.
func withRequestLogger(logs *zap.Logger) bweb.Middleware {
	return bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
		l := logs
		if id := r.ID(); id != "" {
			l = l.With(zap.String("request_id", id))
		}

		bweb.SetRequestData(r, requestLogger{l})
		return next.ServeBWeb(r)
	})
}

// Log returns a trace-correlated zap logger for the request.
func Log(r *bweb.Request) *zap.Logger {
	l, ok := bweb.RequestData[requestLogger](r)
	if !ok {
		panic("bwapp: request logger not found; is the app built by bwapp?")
	}
	return l.With(traceFields(r.Context())...)
}

// Span returns the current trace span of the request.
func Span(r *bweb.Request) trace.Span {
	return trace.SpanFromContext(r.Context())
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
