package bwapp

import (
	"github.com/advdv/bweb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates the Prometheus registry the request metrics and the Go runtime collectors
// are registered with. It is not the global registry, so apps in the same process stay apart.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// metricsHandler exposes the registry in the Prometheus text format.
func metricsHandler(reg *prometheus.Registry) bweb.Handler {
	return bweb.FromStd(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}
