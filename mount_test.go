package bweb_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bweb"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func echoPath(r *bweb.Request) (*bweb.Response, error) {
	return bweb.Text(http.StatusOK, "path:"+r.Path()), nil
}

func TestMount(t *testing.T) {
	app := bweb.New()
	app.Get("/", func(*bweb.Request) (*bweb.Response, error) {
		return bweb.Text(http.StatusOK, "root"), nil
	})
	app.MountFunc("/api", echoPath)

	for _, tt := range []struct {
		method, target, want string
	}{
		{http.MethodGet, "/", "root"},
		{http.MethodGet, "/api", "path:/"},
		{http.MethodGet, "/api/", "path:/"},
		{http.MethodGet, "/api/items", "path:/items"},
		{http.MethodPost, "/api/users/1", "path:/users/1"},
	} {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			res := serve(t, app, tt.method, tt.target)
			require.Equal(t, http.StatusOK, res.Status)
			require.Equal(t, tt.want, string(res.Body()))
		})
	}
}

func TestMountMiddlewareSeesOriginalPath(t *testing.T) {
	var seen string

	app := bweb.New()
	app.Use(bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
		seen = r.Path()
		return next.ServeBWeb(r)
	}))
	app.Mount("/api", bweb.HandlerFunc(echoPath))

	res := serve(t, app, http.MethodGet, "/api/profile")
	require.Equal(t, "path:/profile", string(res.Body()))
	require.Equal(t, "/api/profile", seen)
}

func TestMountError(t *testing.T) {
	app := bweb.New(bweb.WithLogger(bweb.NewTestLogger(t)))
	app.MountFunc("/api", func(*bweb.Request) (*bweb.Response, error) {
		return nil, bweb.NewError(bweb.CodeNotFound, errors.New("not found"))
	})

	res := serve(t, app, http.MethodGet, "/api/missing")
	require.Equal(t, http.StatusNotFound, res.Status)
	require.JSONEq(t, `{"error":"not found"}`, string(res.Body()))
}

func TestMountStd(t *testing.T) {
	app := bweb.New()
	app.MountStd("/std", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Std", "yes")
		w.WriteHeader(http.StatusTeapot)
		fmt.Fprintf(w, "std:%s", r.URL.Path)
	}))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/std/x/y", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "yes", rec.Header().Get("X-Std"))
	require.Equal(t, "std:/x/y", rec.Body.String())
}

func TestMountConflict(t *testing.T) {
	app := bweb.New(bweb.WithLogger(bweb.NewTestLogger(t)))
	app.MountFunc("/api", echoPath)
	app.Get("/api/{rest...}", echoPath)

	require.ErrorIs(t, app.Build(), bweb.ErrRouteConflict)
}
