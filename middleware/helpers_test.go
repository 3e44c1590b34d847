package middleware_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/advdv/bweb"
)

func do(t *testing.T, app *bweb.App, method, path string, hdr http.Header) *bweb.Response {
	t.Helper()

	return doFrom(t, app, "192.0.2.1:5555", method, path, hdr)
}

func doFrom(t *testing.T, app *bweb.App, remote, method, path string, hdr http.Header) *bweb.Response {
	t.Helper()

	if hdr == nil {
		hdr = http.Header{}
	}

	return app.Serve(context.Background(), bweb.RawRequest{
		Method:     method,
		Path:       path,
		Header:     hdr,
		RemoteAddr: remote,
	})
}

func text(s string) bweb.HandlerFunc {
	return func(*bweb.Request) (*bweb.Response, error) {
		return bweb.Text(http.StatusOK, s), nil
	}
}
