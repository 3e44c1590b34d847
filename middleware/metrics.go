package middleware

import (
	"strconv"
	"time"

	"github.com/advdv/bweb"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts requests and observes their duration, labeled by method, matched route and
// status. Unmatched requests are labeled with an empty route so paths can't blow up cardinality.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics creates the collectors under the given namespace and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time spent handling HTTP requests, excluding writing streamed bodies.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being handled.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register collector")
		}
	}

	return m, nil
}

// Middleware returns the middleware that feeds the collectors.
func (m *Metrics) Middleware() bweb.Middleware {
	return bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
		start := time.Now()

		m.inflight.Inc()
		defer m.inflight.Dec()

		res, err := next.ServeBWeb(r)

		route := r.Route()
		m.requests.WithLabelValues(r.Method(), route, strconv.Itoa(StatusOf(res, err))).Inc()
		m.duration.WithLabelValues(r.Method(), route).Observe(time.Since(start).Seconds())

		return res, err
	})
}
