package bwapp

import (
	"net/http"

	"github.com/advdv/bweb"
	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"
)

// Runtime provides access to app-scoped dependencies.
// Inject this into handler constructors via fx instead of pulling from the request.
//
// Example:
//
//	type Handlers struct {
//	    rt *bwapp.Runtime[Env]
//	}
//
//	func NewHandlers(rt *bwapp.Runtime[Env]) *Handlers {
//	    return &Handlers{rt: rt}
//	}
//
//	func (h *Handlers) GetItem(r *bweb.Request) (*bweb.Response, error) {
//	    url, _ := h.rt.Reverse("get-item", r.Param("id"))
//	    return bweb.JSON(http.StatusOK, map[string]string{"self": url}), nil
//	}
type Runtime[E Environment] struct {
	env       E
	app       *bweb.App
	logs      *zap.Logger
	transport http.RoundTripper
}

// RuntimeParams holds optional dependencies for Runtime.
type RuntimeParams struct {
	Logger    *zap.Logger
	Transport http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, app *bweb.App, params RuntimeParams) *Runtime[E] {
	rt := &Runtime[E]{env: env, app: app, logs: params.Logger, transport: params.Transport}
	if rt.logs == nil {
		rt.logs = zap.NewNop()
	}
	if rt.transport == nil {
		rt.transport = http.DefaultTransport
	}
	return rt
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Reverse returns the URL for a named route with the given parameters.
// The route must have been registered with a name.
func (r *Runtime[E]) Reverse(name string, params ...string) (string, error) {
	return r.app.Reverse(name, params...)
}

// Logger returns the app-scoped logger. Inside handlers prefer [Log], which adds request fields.
func (r *Runtime[E]) Logger() *zap.Logger {
	return r.logs
}

// NewRequest returns a fresh [requests.Builder] whose transport traces outbound calls.
func (r *Runtime[E]) NewRequest() *requests.Builder {
	return newRequestBuilder(r.transport)
}
