package bweb

import (
	"net/http"
	"strings"
)

const mountRest = "bwebmountrest"

// MountMethods are the methods a mounted handler is registered under.
var MountMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// Mount mounts a Handler on a sub-path. The mounted handler receives requests with the prefix
// stripped from the path, for every method in [MountMethods]. Middleware registered via Use()
// sees the original path; the strip happens after middleware.
func (a *App) Mount(prefix string, h Handler) {
	prefix = "/" + strings.Trim(prefix, "/")
	stripped := stripPrefix(h)

	for _, method := range MountMethods {
		a.Handle(method, prefix, stripped)
		a.Handle(method, strings.TrimSuffix(prefix, "/")+"/{"+mountRest+"...}", stripped)
	}
}

// MountFunc mounts a HandlerFunc on a sub-path.
func (a *App) MountFunc(prefix string, h HandlerFunc) {
	a.Mount(prefix, h)
}

// MountStd mounts a standard library [http.Handler] on a sub-path. The body of whatever the
// handler writes is buffered into the response.
func (a *App) MountStd(prefix string, h http.Handler) {
	a.Mount(prefix, FromStd(h))
}

func stripPrefix(h Handler) Handler {
	return HandlerFunc(func(r *Request) (*Response, error) {
		rest := r.Param(mountRest)
		return h.ServeBWeb(r.WithPath("/" + rest))
	})
}
