package bweb

import (
	"context"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Option configures an [App].
type Option func(*options)

type options struct {
	logs             Logger
	requestID        bool
	requestIDHeader  string
	notFound         Handler
	methodNotAllowed Handler
}

// WithLogger sets the logger that is told about handler faults, stream failures and conflicts.
func WithLogger(l Logger) Option { return func(o *options) { o.logs = l } }

// WithoutRequestID disables the request ID middleware that is installed outermost by default.
func WithoutRequestID() Option { return func(o *options) { o.requestID = false } }

// WithRequestIDHeader changes the header the request ID is read from and written to.
func WithRequestIDHeader(h string) Option { return func(o *options) { o.requestIDHeader = h } }

// WithNotFound replaces the handler that answers requests no route matches.
func WithNotFound(h Handler) Option { return func(o *options) { o.notFound = h } }

// WithMethodNotAllowed replaces the handler that answers requests whose path only matches under
// other methods. The Allow header is added to its response when missing.
func WithMethodNotAllowed(h Handler) Option { return func(o *options) { o.methodNotAllowed = h } }

// App dispatches requests: it runs them through the middleware chain into the router and turns
// whatever comes back, including errors and panics, into a response that is ready for the wire.
type App struct {
	opts        options
	router      *Router
	reverser    *Reverser
	data        *Store
	errs        []error
	middlewares struct {
		captured bool
		buffered []Middleware
	}
	build struct {
		once  sync.Once
		done  bool
		err   error
		chain Handler
	}
}

// New creates an app with default settings, adjusted by opts.
func New(opts ...Option) *App {
	app := &App{
		opts: options{
			logs:            NewStdLogger(log.Default()),
			requestID:       true,
			requestIDHeader: DefaultRequestIDHeader,
			notFound: HandlerFunc(func(*Request) (*Response, error) {
				return Text(http.StatusNotFound, http.StatusText(http.StatusNotFound)), nil
			}),
			methodNotAllowed: HandlerFunc(func(*Request) (*Response, error) {
				return Text(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed)), nil
			}),
		},
		router:   NewRouter(),
		reverser: NewReverser(),
		data:     NewStore(),
	}

	for _, o := range opts {
		o(&app.opts)
	}

	return app
}

// Data returns the app-scoped store. Values must be provided before the app is built.
func (a *App) Data() *Store { return a.data }

// Router returns the routing table.
func (a *App) Router() *Router { return a.router }

// Reverse returns the url based on the name and parameter values.
func (a *App) Reverse(name string, vals ...string) (string, error) {
	return a.reverser.Reverse(name, vals...)
}

// Use allows providing of middleware. The first middleware provided is the outermost.
func (a *App) Use(mw ...Middleware) {
	a.ensureNoUseAfterHandle()

	for _, m := range mw {
		if m == nil {
			panic("bweb: nil middleware")
		}
	}

	a.middlewares.buffered = append(a.middlewares.buffered, mw...)
}

// Handle registers h for method and template, optionally under a name for [App.Reverse].
// Registration errors, including route conflicts, are reported by [App.Build].
func (a *App) Handle(method, template string, h Handler, name ...string) {
	a.ensureNotBuilt()
	a.middlewares.captured = true

	if len(name) > 0 {
		if _, err := a.reverser.NamedTemplate(name[0], template); err != nil {
			a.errs = append(a.errs, errors.Wrapf(err, "name route %s %s", method, template))
			return
		}
	}

	if err := a.router.Add(method, template, h); err != nil {
		if errors.Is(err, ErrRouteConflict) {
			a.opts.logs.LogRouteConflict(err)
		}

		a.errs = append(a.errs, errors.Wrapf(err, "register %s %s", method, template))
	}
}

// HandleFunc handles the request given the method and template using a function.
func (a *App) HandleFunc(method, template string, h HandlerFunc, name ...string) {
	a.Handle(method, template, h, name...)
}

// Get registers a GET route.
func (a *App) Get(template string, h HandlerFunc, name ...string) {
	a.Handle(http.MethodGet, template, h, name...)
}

// Post registers a POST route.
func (a *App) Post(template string, h HandlerFunc, name ...string) {
	a.Handle(http.MethodPost, template, h, name...)
}

// Put registers a PUT route.
func (a *App) Put(template string, h HandlerFunc, name ...string) {
	a.Handle(http.MethodPut, template, h, name...)
}

// Patch registers a PATCH route.
func (a *App) Patch(template string, h HandlerFunc, name ...string) {
	a.Handle(http.MethodPatch, template, h, name...)
}

// Delete registers a DELETE route.
func (a *App) Delete(template string, h HandlerFunc, name ...string) {
	a.Handle(http.MethodDelete, template, h, name...)
}

// Build composes the middleware chain and freezes the app-scoped store. It runs once; later calls
// return the first result. The error is the first registration error, if any, and wraps
// [ErrRouteConflict] when routes were ambiguous. [App.Serve] builds implicitly.
func (a *App) Build() error {
	a.build.once.Do(func() {
		a.middlewares.captured = true
		a.build.done = true
		a.data.Freeze()

		if len(a.errs) > 0 {
			a.build.err = a.errs[0]
			return
		}

		mws := a.middlewares.buffered
		if a.opts.requestID {
			mws = append([]Middleware{RequestIDMiddleware(a.opts.requestIDHeader)}, mws...)
		}

		a.build.chain = Compose(HandlerFunc(a.dispatch), mws...)
	})

	return a.build.err
}

// Serve dispatches a single request and returns the finalized response. It never panics on
// behalf of handlers or middleware: faults become 500 responses.
func (a *App) Serve(ctx context.Context, raw RawRequest) *Response {
	req := newRequest(ctx, raw, a.data)

	var res *Response
	if err := a.Build(); err != nil {
		a.opts.logs.LogHandlerFault(errors.Wrap(err, "app failed to build"))
		res = errorResponse(err)
	} else {
		res = a.serve(req)
	}

	if a.opts.requestID && res.Header.Get(a.opts.requestIDHeader) == "" {
		id := req.ID()
		if id == "" {
			id = NewRequestID()
		}

		res.Header.Set(a.opts.requestIDHeader, id)
	}

	return Finalize(res, req.Method())
}

// ServeHTTP makes the app implement the http.Handler interface.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := a.Serve(r.Context(), RawRequest{
		Method:     r.Method,
		Path:       r.URL.Path,
		RawQuery:   r.URL.RawQuery,
		Header:     r.Header,
		Body:       r.Body,
		RemoteAddr: r.RemoteAddr,
	})

	WriteTo(r.Context(), w, res, a.opts.logs)
}

func (a *App) serve(req *Request) (res *Response) {
	defer func() {
		if p := recover(); p != nil {
			a.opts.logs.LogHandlerFault(&PanicError{Value: p, Stack: debug.Stack()})
			res = errorResponse(nil)
		}
	}()

	res, err := a.build.chain.ServeBWeb(req)
	switch {
	case err != nil:
		if _, ok := asError(err); !ok {
			a.opts.logs.LogHandlerFault(err)
		}

		return errorResponse(err)
	case res == nil:
		a.opts.logs.LogHandlerFault(errors.Newf("nil response for %s %s", req.Method(), req.Path()))
		return errorResponse(nil)
	}

	if res.Header == nil {
		res.Header = http.Header{}
	}

	return res
}

// dispatch is the innermost step of the chain: it resolves the request and runs the handler.
func (a *App) dispatch(r *Request) (*Response, error) {
	rsv := a.router.Resolve(r.Method(), r.Path())

	switch rsv.Kind {
	case RouteResolved:
		r.x.params, r.x.route = rsv.Params, rsv.Route
		return rsv.Handler.ServeBWeb(r)
	case RouteOptions:
		res := Empty(http.StatusNoContent)
		res.Header.Set("Allow", strings.Join(rsv.Allowed, ", "))

		return res, nil
	case RouteMethodNotAllowed:
		res, err := a.opts.methodNotAllowed.ServeBWeb(r)
		if err != nil {
			if _, ok := asError(err); !ok {
				a.opts.logs.LogHandlerFault(err)
			}

			res = errorResponse(err)
		} else if res == nil {
			return res, nil
		}

		if res.Header == nil {
			res.Header = http.Header{}
		}

		if res.Header.Get("Allow") == "" {
			res.Header.Set("Allow", strings.Join(rsv.Allowed, ", "))
		}

		return res, nil
	default:
		return a.opts.notFound.ServeBWeb(r)
	}
}

func (a *App) ensureNoUseAfterHandle() {
	if a.middlewares.captured {
		panic("bweb: cannot call Use() after calling Handle")
	}
}

func (a *App) ensureNotBuilt() {
	if a.build.done {
		panic("bweb: cannot register routes after the app is built")
	}
}
