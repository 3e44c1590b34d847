package bweb

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Handler turns a request into a response. A returned [*Error] is answered with its code, any other
// error is logged and answered with a 500. Handlers are shared across concurrent requests.
type Handler interface {
	ServeBWeb(r *Request) (*Response, error)
}

// HandlerFunc allow casting a function to imple [Handler].
type HandlerFunc func(*Request) (*Response, error)

// ServeBWeb implements the [Handler] interface.
func (f HandlerFunc) ServeBWeb(r *Request) (*Response, error) { return f(r) }

// Middleware wraps the rest of the chain. It may act before calling next, after it returns, or
// return its own response without calling next at all.
type Middleware interface {
	ServeNext(r *Request, next Handler) (*Response, error)
}

// MiddlewareFunc allow casting a function to implement [Middleware].
type MiddlewareFunc func(r *Request, next Handler) (*Response, error)

// ServeNext implements the [Middleware] interface.
func (f MiddlewareFunc) ServeNext(r *Request, next Handler) (*Response, error) { return f(r, next) }

// WriteTo writes a finalized response to w. Fixed bodies are written at once, streams chunk by
// chunk with a flush after every chunk. When a write fails the producer's context is canceled and
// its emit returns [ErrStreamWrite]; the failure is reported to logs and not returned.
func WriteTo(ctx context.Context, w http.ResponseWriter, res *Response, logs Logger) {
	hdr := w.Header()
	for k, vs := range res.Header {
		hdr[k] = vs
	}

	stream := res.StreamFunc()
	if stream != nil {
		// net/http does its own chunking when no Content-Length is set.
		hdr.Del("Transfer-Encoding")
	}

	w.WriteHeader(res.Status)

	switch {
	case stream != nil:
		switch err := writeStream(ctx, w, stream); {
		case errors.Is(err, ErrStreamWrite):
			logs.LogStreamWriteFailure(err)
		case err != nil:
			logs.LogHandlerFault(err)
		}
	case len(res.Body()) > 0:
		if _, err := w.Write(res.Body()); err != nil {
			logs.LogStreamWriteFailure(StreamWriteError(err, "write body"))
		}
	}
}

func writeStream(ctx context.Context, w http.ResponseWriter, stream StreamFunc) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rc := http.NewResponseController(w)

	var werr error
	emit := func(b []byte) error {
		if werr != nil {
			return werr
		}

		if _, err := w.Write(b); err != nil {
			werr = StreamWriteError(err, "write chunk")
			cancel()

			return werr
		}

		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			werr = StreamWriteError(err, "flush chunk")
			cancel()

			return werr
		}

		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()

	if perr := stream(ctx, emit); werr == nil && perr != nil && ctx.Err() == nil {
		return errors.Wrap(perr, "stream producer")
	}

	return werr
}
