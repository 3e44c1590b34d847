package bweb

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"slices"

	"github.com/advdv/bweb/internal/pathtrie"
	"github.com/cockroachdb/errors"
)

// Params are the path values captured by the matched route.
type Params = pathtrie.Params

// RawRequest is what a server runtime hands to [App.Serve]: an already parsed request line,
// headers and a body that has not been read yet.
type RawRequest struct {
	Method     string
	Path       string
	RawQuery   string
	Header     http.Header
	Body       io.ReadCloser
	RemoteAddr string
}

// exchange is the state shared by every copy of a request made while it travels through the
// chain. The router fills in the match; the guard records which continuations ran.
type exchange struct {
	id     string
	params Params
	route  string
	local  *Store
	seen   []uint64
}

// Request is the dispatcher's view of an incoming request.
type Request struct {
	ctx        context.Context
	method     string
	path       string
	query      string
	header     http.Header
	remoteAddr string

	body     io.ReadCloser
	bodyRead bool
	bodyBuf  []byte
	bodyErr  error

	app *Store
	x   *exchange
}

// NewRequest creates a request outside of a server, for example to test handlers or middleware
// directly. The target may carry a query string.
func NewRequest(method, target string, body io.Reader) *Request {
	u, err := url.ParseRequestURI(target)
	if err != nil {
		u = &url.URL{Path: target}
	}

	rc, ok := body.(io.ReadCloser)
	if !ok && body != nil {
		rc = io.NopCloser(body)
	}

	return newRequest(context.Background(), RawRequest{
		Method:   method,
		Path:     u.Path,
		RawQuery: u.RawQuery,
		Header:   http.Header{},
		Body:     rc,
	}, NewStore())
}

func newRequest(ctx context.Context, raw RawRequest, app *Store) *Request {
	if raw.Header == nil {
		raw.Header = http.Header{}
	}

	if raw.Path == "" {
		raw.Path = "/"
	}

	return &Request{
		ctx:        ctx,
		method:     raw.Method,
		path:       raw.Path,
		query:      raw.RawQuery,
		header:     raw.Header,
		remoteAddr: raw.RemoteAddr,
		body:       raw.Body,
		app:        app,
		x:          &exchange{local: NewStore()},
	}
}

// Method returns the request method.
func (r *Request) Method() string { return r.method }

// Path returns the request path, without the query string.
func (r *Request) Path() string { return r.path }

// Query parses the query string.
func (r *Request) Query() url.Values {
	vals, _ := url.ParseQuery(r.query)
	return vals
}

// RawQuery returns the query string as received.
func (r *Request) RawQuery() string { return r.query }

// Header returns the request headers. Middleware may modify them.
func (r *Request) Header() http.Header { return r.header }

// RemoteAddr returns the address of the client as reported by the server runtime.
func (r *Request) RemoteAddr() string { return r.remoteAddr }

// Context returns the request's context.
func (r *Request) Context() context.Context { return r.ctx }

// WithContext returns a shallow copy of r using ctx. The copy shares the body, route match and
// request-scoped store with r.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("bweb: nil context")
	}

	r2 := *r
	r2.ctx = ctx

	return &r2
}

// Detach returns a copy of r using ctx that shares nothing mutable with r: headers, route match,
// request-scoped store and chain bookkeeping are copied. Work that may still be running after
// r has been answered, such as a handler cut off by a deadline, must run on a detached copy.
// [Request.Adopt] brings the copy's state back once its result is used.
func (r *Request) Detach(ctx context.Context) *Request {
	if ctx == nil {
		panic("bweb: nil context")
	}

	r2 := *r
	r2.ctx = ctx
	r2.header = r.header.Clone()
	r2.x = &exchange{
		id:     r.x.id,
		params: slices.Clone(r.x.params),
		route:  r.x.route,
		local:  r.x.local.Clone(),
		seen:   slices.Clone(r.x.seen),
	}

	return &r2
}

// Adopt copies the state of a request returned by [Request.Detach] back into r. It must only be
// called once the detached copy is no longer in use.
func (r *Request) Adopt(d *Request) {
	clear(r.header)
	for k, v := range d.header {
		r.header[k] = v
	}

	r.body, r.bodyRead, r.bodyBuf, r.bodyErr = d.body, d.bodyRead, d.bodyBuf, d.bodyErr
	r.x.id, r.x.params, r.x.route = d.x.id, d.x.params, d.x.route
	r.x.local, r.x.seen = d.x.local, d.x.seen
}

// WithPath returns a shallow copy of r with a different path.
func (r *Request) WithPath(path string) *Request {
	r2 := *r
	r2.path = path

	return &r2
}

// Body returns the unread body. It returns [http.NoBody] when there is none or when it has
// already been consumed by [Request.Bytes].
func (r *Request) Body() io.ReadCloser {
	if r.body == nil || r.bodyRead {
		return http.NoBody
	}

	return r.body
}

// SetBody replaces the body, discarding anything read from the old one.
func (r *Request) SetBody(rc io.ReadCloser) {
	r.body, r.bodyRead, r.bodyBuf, r.bodyErr = rc, false, nil, nil
}

// Bytes reads the whole body on first use and returns the same bytes on every later call.
func (r *Request) Bytes() ([]byte, error) {
	if r.bodyRead {
		return r.bodyBuf, r.bodyErr
	}

	r.bodyRead = true
	if r.body == nil {
		return nil, nil
	}

	defer r.body.Close()

	r.bodyBuf, r.bodyErr = io.ReadAll(r.body)
	if r.bodyErr != nil {
		r.bodyErr = errors.Wrap(r.bodyErr, "read request body")
	}

	return r.bodyBuf, r.bodyErr
}

// ID returns the request ID, empty when the request ID middleware is disabled.
func (r *Request) ID() string { return r.x.id }

// Params returns the captured path values. They are empty until the router matched the request.
func (r *Request) Params() Params { return r.x.params }

// Param returns the path value captured under name, or the empty string.
func (r *Request) Param(name string) string {
	v, _ := r.x.params.Get(name)
	return v
}

// ParamOr returns the path value captured under name, or def.
func (r *Request) ParamOr(name, def string) string {
	if v, ok := r.x.params.Get(name); ok {
		return v
	}

	return def
}

// Route returns the template of the matched route, empty until the router matched the request.
func (r *Request) Route() string { return r.x.route }

// AppStore returns the frozen app-scoped store.
func (r *Request) AppStore() *Store { return r.app }

// Store returns the request-scoped store.
func (r *Request) Store() *Store { return r.x.local }

// AppData returns the app-scoped value of type T.
func AppData[T any](r *Request) (T, bool) { return Lookup[T](r.app) }

// RequestData returns the request-scoped value of type T.
func RequestData[T any](r *Request) (T, bool) { return Lookup[T](r.x.local) }

// SetRequestData stores a request-scoped value of type T, returning the value it replaced.
func SetRequestData[T any](r *Request, v T) (T, bool) { return Provide(r.x.local, v) }
