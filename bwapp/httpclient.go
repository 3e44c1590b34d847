package bwapp

import (
	"net/http"

	"github.com/carlmjohnson/requests"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// TransportParams are the dependencies of [NewHTTPTransport].
type TransportParams struct {
	fx.In

	Env        Environment
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewHTTPTransport creates the RoundTripper used for calls to other services. Each call gets a
// client span named after its method and target host and carries the trace context of the request
// being served. Requests without a User-Agent are sent with one naming the calling service.
func NewHTTPTransport(params TransportParams) http.RoundTripper {
	return otelhttp.NewTransport(
		&agentTransport{next: http.DefaultTransport, agent: params.Env.serviceName() + " (bweb)"},
		otelhttp.WithTracerProvider(params.TracerProv),
		otelhttp.WithPropagators(params.Propagator),
		otelhttp.WithSpanNameFormatter(clientSpanName),
	)
}

func clientSpanName(_ string, r *http.Request) string {
	return "HTTP " + r.Method + " " + r.URL.Host
}

type agentTransport struct {
	next  http.RoundTripper
	agent string
}

func (t *agentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(r)
	}

	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.agent)

	return t.next.RoundTrip(r)
}

// NewHTTPClient creates an *http.Client that uses the given transport.
func NewHTTPClient(t http.RoundTripper) *http.Client {
	return &http.Client{Transport: t}
}

// newRequestBuilder starts every [Runtime.NewRequest] chain on the service transport.
func newRequestBuilder(t http.RoundTripper) *requests.Builder {
	return requests.New().Transport(t)
}
