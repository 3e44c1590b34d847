package bweb_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/advdv/bweb"
	"github.com/advdv/bweb/internal/pathtrie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterResolve(t *testing.T) {
	rt := bweb.NewRouter()
	rt.Get("/hi/{name}", bweb.HandlerFunc(hello))
	rt.Post("/hi/{name}", bweb.HandlerFunc(hello))
	rt.Head("/only-head", bweb.HandlerFunc(hello))
	rt.Options("/opts", bweb.HandlerFunc(hello))

	rsv := rt.Resolve(http.MethodGet, "/hi/Ada")
	require.Equal(t, bweb.RouteResolved, rsv.Kind)
	assert.Equal(t, "/hi/{name}", rsv.Route)
	assert.Equal(t, bweb.Params{{Key: "name", Value: "Ada"}}, rsv.Params)

	rsv = rt.Resolve(http.MethodHead, "/hi/Ada")
	require.Equal(t, bweb.RouteResolved, rsv.Kind)

	rsv = rt.Resolve(http.MethodDelete, "/hi/Ada")
	require.Equal(t, bweb.RouteMethodNotAllowed, rsv.Kind)
	assert.Equal(t, []string{"GET", "HEAD", "POST"}, rsv.Allowed)

	rsv = rt.Resolve(http.MethodGet, "/only-head")
	require.Equal(t, bweb.RouteMethodNotAllowed, rsv.Kind)
	assert.Equal(t, []string{"HEAD"}, rsv.Allowed)

	rsv = rt.Resolve(http.MethodOptions, "/opts")
	require.Equal(t, bweb.RouteResolved, rsv.Kind)

	rsv = rt.Resolve(http.MethodOptions, "/hi/x")
	require.Equal(t, bweb.RouteOptions, rsv.Kind)
	assert.Equal(t, []string{"GET", "HEAD", "OPTIONS", "POST"}, rsv.Allowed)

	require.Equal(t, bweb.RouteNotFound, rt.Resolve(http.MethodGet, "/hi").Kind)

	assert.Equal(t, []bweb.Route{
		{Method: "GET", Template: "/hi/{name}"},
		{Method: "POST", Template: "/hi/{name}"},
		{Method: "HEAD", Template: "/only-head"},
		{Method: "OPTIONS", Template: "/opts"},
	}, rt.Routes())
}

func TestRouterAddErrors(t *testing.T) {
	rt := bweb.NewRouter()
	require.NoError(t, rt.Add(http.MethodGet, "/a/{id}", bweb.HandlerFunc(hello)))

	require.ErrorIs(t, rt.Add(http.MethodGet, "/a/{name}", bweb.HandlerFunc(hello)), bweb.ErrRouteConflict)
	require.ErrorIs(t, rt.Add(http.MethodGet, "/a/{id}/", bweb.HandlerFunc(hello)), bweb.ErrRouteConflict)
	require.NoError(t, rt.Add(http.MethodPost, "/a/{name}", bweb.HandlerFunc(hello)))

	err := rt.Add(http.MethodGet, "/b/{p...}/c", bweb.HandlerFunc(hello))
	require.Error(t, err)
	require.NotErrorIs(t, err, bweb.ErrRouteConflict)

	require.ErrorContains(t, rt.Add("", "/c", bweb.HandlerFunc(hello)), "invalid method")
	require.ErrorContains(t, rt.Add(http.MethodGet, "/c", nil), "nil handler")

	require.Panics(t, func() { rt.Get("/a/{other}", bweb.HandlerFunc(hello)) })
}

func TestRouterConflictUnwrapsWithStdlib(t *testing.T) {
	rt := bweb.NewRouter()
	require.NoError(t, rt.Add(http.MethodGet, "/a/{id}", bweb.HandlerFunc(hello)))

	err := rt.Add(http.MethodGet, "/a/{name}", bweb.HandlerFunc(hello))
	require.True(t, stderrors.Is(err, bweb.ErrRouteConflict))

	var cerr *pathtrie.ConflictError
	require.True(t, stderrors.As(err, &cerr))
	require.ErrorContains(t, err, "route conflict: GET")
}
