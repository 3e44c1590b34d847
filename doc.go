// Package bweb is a request-dispatch layer that sits between an HTTP server runtime and
// application code: route matching, onion middleware, and a request/response lifecycle with
// fixed or streamed bodies and app- and request-scoped shared values.
//
// # Overview
//
// Handlers receive a [*Request] and return a [*Response] or an error. They never write to a
// connection themselves; the [App] turns what they return into wire form and hands it to the
// server runtime. A minimal example:
//
//	app := bweb.New()
//	app.Get("/items/{id}", func(r *bweb.Request) (*bweb.Response, error) {
//	    item, err := db.GetItem(r.Param("id"))
//	    if err != nil {
//	        return nil, bweb.NotFound("no such item")
//	    }
//	    return bweb.JSON(http.StatusOK, item), nil
//	}, "get-item")
//
//	http.ListenAndServe(":8080", app)
//
// # Routing
//
// Templates consist of literal segments, parameters written as "{name}" and a terminal wildcard
// written as "{name...}" that captures the rest of the path. When several routes could match, a
// literal segment wins over a parameter, and a parameter over a wildcard. Trailing slashes are
// ignored. Registrations that would make matching ambiguous, such as "/users/{id}" next to
// "/users/{name}", make [App.Build] fail with [ErrRouteConflict].
//
// A HEAD request without its own route is served by the GET route, with the body dropped. A path
// that only matches under other methods is answered with 405 and an Allow header; an OPTIONS
// request on such a path gets 204 and the same Allow header.
//
// # Middleware
//
// A [Middleware] receives the request and the rest of the chain as next. It can work before
// and after calling next, or answer on its own by not calling it:
//
//	app.Use(bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
//	    start := time.Now()
//	    res, err := next.ServeBWeb(r)
//	    log.Printf("%s %s took %v", r.Method(), r.Path(), time.Since(start))
//	    return res, err
//	}))
//
// The first middleware provided is the outermost. The chain is composed once when the app is
// built. Calling next twice for the same request returns [ErrNextCalledTwice].
//
// Every app installs a request ID middleware outermost unless [WithoutRequestID] is given. It
// reuses an inbound X-Request-Id or generates one, and sets it on every response. More
// middleware lives in the middleware sub-package.
//
// # Error Handling
//
// Errors returned from handlers or middleware become responses:
//
//   - [*Error] (created with [NewError] or helpers such as [BadRequest]): its code, with a body of
//     the form {"error": "message"}
//   - Other errors and panics: logged and converted to 500 Internal Server Error
//
// A fault while serving one request never affects other requests.
//
// # Shared Values
//
// Values are stored per type. App-scoped values are provided before the app is built and are
// read-only afterwards; request-scoped values live as long as the request:
//
//	bweb.Provide(app.Data(), cfg)
//
//	cfg, _ := bweb.AppData[Config](r)
//	bweb.SetRequestData(r, user)
//	user, ok := bweb.RequestData[User](r)
//
// # Streaming
//
// [Stream] responses are produced while they are written. The producer gets an emit function
// and a context that is canceled when the client can no longer be written to:
//
//	return bweb.Stream(http.StatusOK, "text/plain", func(ctx context.Context, emit func([]byte) error) error {
//	    for _, line := range lines {
//	        if err := emit([]byte(line)); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	}), nil
//
// [Finalize] gives fixed bodies a Content-Length and streamed bodies chunked encoding.
//
// # Named Routes and URL Reversing
//
// Routes can be named for URL generation, avoiding hardcoded paths:
//
//	app.Get("/users/{id}", getUser, "get-user")
//	url, err := app.Reverse("get-user", "123")  // returns "/users/123"
//
// # Server Runtimes
//
// [App] implements http.Handler. Other runtimes call [App.Serve] with a [RawRequest] and write
// the returned response themselves; see the bwfast package for fasthttp.
package bweb
