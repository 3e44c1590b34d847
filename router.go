package bweb

import (
	"net/http"
	"slices"
	"strings"

	"github.com/advdv/bweb/internal/pathtrie"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ResolutionKind is the outcome of resolving a request against the routing table.
type ResolutionKind uint8

const (
	// RouteResolved means a handler was found for the method and path.
	RouteResolved ResolutionKind = iota
	// RouteNotFound means no route matches the path under any method.
	RouteNotFound
	// RouteMethodNotAllowed means the path matches under other methods only.
	RouteMethodNotAllowed
	// RouteOptions means an OPTIONS request hit a path without an explicit OPTIONS route.
	RouteOptions
)

// Resolution describes how the router resolved a request.
type Resolution struct {
	Kind    ResolutionKind
	Handler Handler
	Params  Params
	Route   string
	// Allowed lists the methods the path matches under, sorted. Only set for RouteMethodNotAllowed
	// and RouteOptions.
	Allowed []string
}

// Route is a registered method and template.
type Route struct {
	Method   string
	Template string
}

// Router is a per-method routing table. Registration is not safe for concurrent use; resolving is,
// once registration is done.
type Router struct {
	tries  map[string]*pathtrie.Trie[Handler]
	routes []Route
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{tries: map[string]*pathtrie.Trie[Handler]{}}
}

// Add registers h for method and template. Ambiguous registrations return an error wrapping
// [ErrRouteConflict].
func (rt *Router) Add(method, template string, h Handler) error {
	if method == "" || strings.ContainsAny(method, " /") {
		return errors.Newf("invalid method %q", method)
	}

	if h == nil {
		return errors.Newf("nil handler for %s %s", method, template)
	}

	tmpl, err := pathtrie.ParseTemplate(template)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	trie, ok := rt.tries[method]
	if !ok {
		trie = pathtrie.New[Handler]()
		rt.tries[method] = trie
	}

	if err := trie.InsertTemplate(tmpl, h); err != nil {
		var cerr *pathtrie.ConflictError
		if errors.As(err, &cerr) {
			return withSentinel(ErrRouteConflict, errors.Wrapf(err, "%s", method))
		}

		return err
	}

	rt.routes = append(rt.routes, Route{Method: method, Template: tmpl.String()})

	return nil
}

func (rt *Router) mustAdd(method, template string, h Handler) {
	if err := rt.Add(method, template, h); err != nil {
		panic("bweb: " + err.Error())
	}
}

// Get registers a GET route, panicking on error.
func (rt *Router) Get(template string, h Handler) { rt.mustAdd(http.MethodGet, template, h) }

// Post registers a POST route, panicking on error.
func (rt *Router) Post(template string, h Handler) { rt.mustAdd(http.MethodPost, template, h) }

// Put registers a PUT route, panicking on error.
func (rt *Router) Put(template string, h Handler) { rt.mustAdd(http.MethodPut, template, h) }

// Delete registers a DELETE route, panicking on error.
func (rt *Router) Delete(template string, h Handler) { rt.mustAdd(http.MethodDelete, template, h) }

// Patch registers a PATCH route, panicking on error.
func (rt *Router) Patch(template string, h Handler) { rt.mustAdd(http.MethodPatch, template, h) }

// Head registers a HEAD route, panicking on error.
func (rt *Router) Head(template string, h Handler) { rt.mustAdd(http.MethodHead, template, h) }

// Options registers an OPTIONS route, panicking on error.
func (rt *Router) Options(template string, h Handler) { rt.mustAdd(http.MethodOptions, template, h) }

// Routes lists the registered routes in registration order.
func (rt *Router) Routes() []Route { return slices.Clone(rt.routes) }

// Resolve finds the handler for method and path. A HEAD request without its own route uses the GET
// route. When the path matches under other methods only, the result lists them; a GET match also
// allows HEAD.
func (rt *Router) Resolve(method, path string) Resolution {
	if m, ok := rt.lookup(method, path); ok {
		return Resolution{Kind: RouteResolved, Handler: m.Value, Params: m.Params, Route: m.Template}
	}

	if method == http.MethodHead {
		if m, ok := rt.lookup(http.MethodGet, path); ok {
			return Resolution{Kind: RouteResolved, Handler: m.Value, Params: m.Params, Route: m.Template}
		}
	}

	allowed := lo.Filter(lo.Keys(rt.tries), func(other string, _ int) bool {
		_, ok := rt.lookup(other, path)
		return ok
	})
	if len(allowed) == 0 {
		return Resolution{Kind: RouteNotFound}
	}

	if lo.Contains(allowed, http.MethodGet) {
		allowed = append(allowed, http.MethodHead)
	}

	if method == http.MethodOptions {
		allowed = append(allowed, http.MethodOptions)
		allowed = lo.Uniq(allowed)
		slices.Sort(allowed)

		return Resolution{Kind: RouteOptions, Allowed: allowed}
	}

	allowed = lo.Uniq(allowed)
	slices.Sort(allowed)

	return Resolution{Kind: RouteMethodNotAllowed, Allowed: allowed}
}

func (rt *Router) lookup(method, path string) (pathtrie.Match[Handler], bool) {
	trie, ok := rt.tries[method]
	if !ok {
		return pathtrie.Match[Handler]{}, false
	}

	return trie.Lookup(path)
}
