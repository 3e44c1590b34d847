package bwapptest

import (
	"net/http"
	"net/http/httptest"

	"github.com/advdv/bweb"
)

// Call serves req with the app in memory and returns the recorded response. The app is built on
// first use, so routes must be registered before.
func Call(app *bweb.App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

// CallHandler serves req with a single handler registered under template for the request's
// method, in an app without middleware. Handlers that use bwapp.Log need the full app; use
// [Call] for those.
func CallHandler(template string, handler bweb.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	app := bweb.New(bweb.WithoutRequestID())
	app.HandleFunc(req.Method, template, handler)
	return Call(app, req)
}
