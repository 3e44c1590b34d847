// Package middleware provides optional cross-cutting units for a bweb.App: request logging and
// tracing, size and time limits, per-client rate limiting, gzip compression, Prometheus metrics
// and CORS.
package middleware
