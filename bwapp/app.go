package bwapp

import (
	"context"
	"net/http"

	"github.com/advdv/bweb"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	FxOptions []fx.Option
	Dotenv    []string
	dotenv    bool
}

// Option configures the App.
type Option func(*AppConfig)

// runtimeProviderParams holds dependencies for Runtime.
type runtimeProviderParams[E Environment] struct {
	fx.In

	Env       E
	App       *bweb.App
	Logger    *zap.Logger
	Transport http.RoundTripper
}

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthHandler sets a custom health check handler.
// If not set, a default handler returning 200 OK is used.
func WithHealthHandler(h bweb.HandlerFunc) Option {
	return func(c *AppConfig) {
		c.HealthHandler = h
	}
}

// WithMiddleware adds middleware that runs inside the default middleware, in the given order.
func WithMiddleware(mw ...bweb.Middleware) Option {
	return func(c *AppConfig) {
		c.Middleware = append(c.Middleware, mw...)
	}
}

// WithAppOptions passes options to [bweb.New], after the ones bwapp derives from the environment.
func WithAppOptions(opts ...bweb.Option) Option {
	return func(c *AppConfig) {
		c.AppOptions = append(c.AppOptions, opts...)
	}
}

// WithDotenv loads the given files, ".env" when none are given, into the process environment
// before it is parsed. Variables that are already set win.
func WithDotenv(files ...string) Option {
	return func(c *AppConfig) {
		c.dotenv = true
		c.Dotenv = append(c.Dotenv, files...)
	}
}

// NewApp creates a batteries-included app with dependency injection.
//
// The routing function can request any types that are provided via fx options.
// At minimum, it should accept *bweb.App for routing.
//
// Example:
//
//	bwapp.NewApp[Env](func(a *bweb.App, h *Handlers) {
//	    a.Get("/items/{id}", h.GetItem, "get-item")
//	},
//	    bwapp.WithFx(fx.Provide(NewHandlers)),
//	).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	return &App{
		app: fx.New(FxOptions[E](routing, opts...)...),
	}
}

// FxOptions returns the complete set of fx options that [NewApp] uses to build the app.
func FxOptions[E Environment](routing any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	parse := ParseEnv[E]()

	baseOpts := make([]fx.Option, 0, 16+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(func() (E, error) {
			if cfg.dotenv {
				if err := LoadDotenv(cfg.Dotenv...); err != nil {
					var zero E
					return zero, err
				}
			}
			return parse()
		}),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(provideLogger),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(NewRegistry),
		fx.Provide(NewHTTPTransport),
		fx.Provide(NewHTTPClient),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewWebApp),
		fx.Provide(NewServer),
		fx.Provide(func(p runtimeProviderParams[E]) *Runtime[E] {
			return NewRuntime(p.Env, p.App, RuntimeParams{Logger: p.Logger, Transport: p.Transport})
		}),
		fx.Invoke(func(app *bweb.App, env E) { bweb.Provide(app.Data(), env) }),
		fx.Invoke(startServerHook),
		fx.Invoke(routing),
		fx.Invoke(registerBuiltinRoutes),
	}...)

	return append(baseOpts, cfg.FxOptions...)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application and blocks until ctx is done, then stops it.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
