package bwapp

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/advdv/bweb"
	"github.com/advdv/bweb/middleware"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServerConfig holds optional configuration for the app and its HTTP server.
type ServerConfig struct {
	HealthHandler bweb.HandlerFunc
	Middleware    []bweb.Middleware
	AppOptions    []bweb.Option
}

// WebAppParams holds the dependencies for creating the dispatching app.
type WebAppParams struct {
	fx.In

	Env        Environment
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Registry   *prometheus.Registry
}

// NewWebApp creates the [bweb.App] with the default middleware installed: request logging and
// tracing, metrics, a request-scoped logger, request limits, rate limiting when configured and
// finally any middleware given through [WithMiddleware].
func NewWebApp(params WebAppParams, cfg ServerConfig) (*bweb.App, error) {
	opts := []bweb.Option{bweb.WithLogger(newBWebLogger(params.Logger))}
	if !params.Env.requestID() {
		opts = append(opts, bweb.WithoutRequestID())
	}

	app := bweb.New(append(opts, cfg.AppOptions...)...)

	metrics, err := middleware.NewMetrics(params.Registry, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up metrics")
	}

	limits := middleware.DefaultLimits()
	limits.MaxBodyBytes = params.Env.maxBodyBytes()
	limits.Timeout = params.Env.requestTimeout()

	app.Use(
		middleware.Trace(params.Logger.Named("http"), middleware.WithTracerProvider(params.TracerProv)),
		metrics.Middleware(),
		withRequestLogger(params.Logger),
		middleware.Limits(limits),
	)

	if rl := params.Env.rateLimit(); rl.RPS > 0 {
		app.Use(middleware.RateLimit(rl))
	}

	app.Use(cfg.Middleware...)

	return app, nil
}

// registerBuiltinRoutes adds the health and metrics routes. It runs after the routing function
// so that function can still install middleware.
func registerBuiltinRoutes(app *bweb.App, env Environment, reg *prometheus.Registry, cfg ServerConfig) {
	health := cfg.HealthHandler
	if health == nil {
		health = defaultHealthHandler
	}

	app.Get(env.healthPath(), health)

	app.Handle(http.MethodGet, env.metricsPath(), metricsHandler(reg))
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	App        *bweb.App
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewServer creates the HTTP server that feeds the app, with inbound trace propagation.
func NewServer(params ServerParams) *http.Server {
	handler := withTracing(params.TracerProv, params.Propagator,
		params.Env.serviceName(), params.Env.healthPath())(params.App)

	tc := TimeoutConfig{RequestTimeout: params.Env.requestTimeout()}
	readHeaderTimeout, readTimeout, writeTimeout, idleTimeout := tc.ServerTimeouts()

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", params.Env.port()),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// startServerHook registers lifecycle hooks for the HTTP server. The app is built on start, so
// route conflicts abort startup. The listener is bound before start returns.
func startServerHook(lc fx.Lifecycle, server *http.Server, app *bweb.App, logger *zap.Logger, env Environment) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := app.Build(); err != nil {
				return errors.Wrap(err, "failed to build app")
			}

			for _, rt := range app.Router().Routes() {
				logger.Debug("route", zap.String("method", rt.Method), zap.String("template", rt.Template))
			}

			var lcfg net.ListenConfig
			ln, err := lcfg.Listen(ctx, "tcp", server.Addr)
			if err != nil {
				return errors.Wrapf(err, "failed to listen on %s", server.Addr)
			}

			logger.Info("starting server", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")

			ctx, cancel := context.WithTimeout(ctx, env.shutdownTimeout())
			defer cancel()

			return server.Shutdown(ctx)
		},
	})
}

func defaultHealthHandler(*bweb.Request) (*bweb.Response, error) {
	return bweb.Empty(http.StatusOK), nil
}
