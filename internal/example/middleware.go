// Package example implements example middleware in an outside package.
package example

import (
	"github.com/advdv/bweb"
	"go.uber.org/zap"
)

// requestLogger scopes the logger in the request store.
type requestLogger struct{ *zap.Logger }

// Middleware provides an example for middleware that adds a request-scoped logger.
func Middleware(logs *zap.Logger) bweb.Middleware {
	return bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
		bweb.SetRequestData(r, requestLogger{logs.With(zap.String("method", r.Method()))})

		return next.ServeBWeb(r)
	})
}

// Log returns the logger set by [Middleware], or a no-op logger.
func Log(r *bweb.Request) *zap.Logger {
	if l, ok := bweb.RequestData[requestLogger](r); ok {
		return l.Logger
	}

	return zap.NewNop()
}
