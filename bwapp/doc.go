// Package bwapp provides a batteries-included bootstrap for HTTP services built on bweb.
//
// # Overview
//
// bwapp handles the boilerplate of running a bweb app as a service: environment parsing,
// structured logging, OpenTelemetry tracing, Prometheus metrics, default middleware and graceful
// shutdown. A complete application can be created in a single call:
//
//	bwapp.NewApp[Env](func(a *bweb.App, h *Handlers) {
//	    a.Get("/items", h.ListItems)
//	    a.Get("/items/{id}", h.GetItem, "get-item")
//	},
//	    bwapp.WithFx(fx.Provide(NewHandlers)),
//	).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    bwapp.BaseEnvironment
//	    DatabaseURL string `env:"DATABASE_URL,required"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable               | Required | Default  | Description                                |
//	|------------------------|----------|----------|--------------------------------------------|
//	| BW_PORT                | Yes      | -        | Port the HTTP server listens on            |
//	| BW_SERVICE_NAME        | Yes      | -        | Service name for logging and tracing       |
//	| BW_LOG_LEVEL           | No       | info     | Log level (debug, info, warn, error)       |
//	| BW_OTEL_EXPORTER       | No       | none     | Trace exporter: "stdout" or "none"         |
//	| BW_REQUEST_ID          | No       | true     | Reuse or generate X-Request-Id             |
//	| BW_HEALTH_PATH         | No       | /healthz | Health check route                         |
//	| BW_METRICS_PATH        | No       | /metrics | Prometheus route                           |
//	| BW_MAX_BODY_BYTES      | No       | 1048576  | Largest accepted request body              |
//	| BW_REQUEST_TIMEOUT     | No       | 30s      | Time a request may take before a 408       |
//	| BW_RATE_LIMIT_RPS      | No       | 0        | Requests per second per client, 0 disables |
//	| BW_RATE_LIMIT_BURST    | No       | 10       | Requests a client may make at once         |
//	| BW_TRUST_FORWARDED_FOR | No       | false    | Rate limit by X-Forwarded-For (proxy only) |
//	| BW_SHUTDOWN_TIMEOUT    | No       | 15s      | Time in-flight requests get on shutdown    |
//
// [WithDotenv] loads .env files before the environment is parsed.
//
// # Runtime
//
// [Runtime] provides access to app-scoped dependencies and should be injected into handler
// constructors via fx:
//
//   - [Runtime.Env] returns the typed environment configuration
//   - [Runtime.Reverse] generates URLs for named routes
//   - [Runtime.NewRequest] starts an outbound request with a traced transport
//
// The typed environment is also in the app store, for handlers that are not constructed by fx:
//
//	env, _ := bweb.AppData[Env](r)
//
// # Request Scope
//
// [Log] returns a logger carrying the request ID and the trace and span IDs, and [Span] the
// current span:
//
//	func (h *Handlers) GetItem(r *bweb.Request) (*bweb.Response, error) {
//	    bwapp.Log(r).Info("getting item", zap.String("id", r.Param("id")))
//	    bwapp.Span(r).AddEvent("lookup")
//	    // ...
//	}
//
// # Lifecycle
//
// The app is built when fx starts, so conflicting routes abort startup. On stop the server stops
// accepting connections and waits for in-flight requests up to BW_SHUTDOWN_TIMEOUT, after which
// the tracer provider is shut down and the logger is flushed.
package bwapp
