// Package bwapptest provides test helpers for bwapp applications.
//
// It constructs the identical DI graph as [bwapp.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	bwapptest.SetBaseEnv(t, 18081)
//	app := bwapptest.New[TestEnv](t, routing)
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package bwapptest

import (
	"testing"

	"github.com/advdv/bweb"
	"github.com/advdv/bweb/bwapp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing bwapp applications.
type App struct {
	*fxtest.App
	Web *bweb.App
}

// New creates a test app with the same DI graph as [bwapp.NewApp]. The dispatching app is
// available as Web, for calling it in memory with [Call].
func New[E bwapp.Environment](t testing.TB, routing any, opts ...bwapp.Option) *App {
	app := &App{}
	opts = append(opts, bwapp.WithFx(fx.Populate(&app.Web)))
	app.App = fxtest.New(t, bwapp.FxOptions[E](routing, opts...)...)
	return app
}
