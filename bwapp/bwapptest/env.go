package bwapptest

import (
	"strconv"
	"testing"
	"time"
)

// Env provides a chainable builder for setting [bwapp.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [bwapp.BaseEnvironment] env vars to sensible test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - BW_SERVICE_NAME: "test"
//   - BW_LOG_LEVEL: "error"
//   - BW_OTEL_EXPORTER: "none"
//   - BW_HEALTH_PATH: "/healthz"
//   - BW_METRICS_PATH: "/metrics"
//   - BW_REQUEST_TIMEOUT: "5s"
//   - BW_RATE_LIMIT_RPS: "0"
//   - BW_TRUST_FORWARDED_FOR: "false"
//   - BW_SHUTDOWN_TIMEOUT: "5s"
//
// Use the returned [Env] to override individual values:
//
//	bwapptest.SetBaseEnv(t, 18085).ServiceName("orders").RateLimit(1, 1)
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("BW_PORT", strconv.Itoa(port))
	t.Setenv("BW_SERVICE_NAME", "test")
	t.Setenv("BW_LOG_LEVEL", "error")
	t.Setenv("BW_OTEL_EXPORTER", "none")
	t.Setenv("BW_HEALTH_PATH", "/healthz")
	t.Setenv("BW_METRICS_PATH", "/metrics")
	t.Setenv("BW_REQUEST_TIMEOUT", "5s")
	t.Setenv("BW_RATE_LIMIT_RPS", "0")
	t.Setenv("BW_TRUST_FORWARDED_FOR", "false")
	t.Setenv("BW_SHUTDOWN_TIMEOUT", "5s")
	return &Env{t: t}
}

// ServiceName overrides BW_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("BW_SERVICE_NAME", name)
	return e
}

// HealthPath overrides BW_HEALTH_PATH.
func (e *Env) HealthPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BW_HEALTH_PATH", path)
	return e
}

// MetricsPath overrides BW_METRICS_PATH.
func (e *Env) MetricsPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BW_METRICS_PATH", path)
	return e
}

// RequestTimeout overrides BW_REQUEST_TIMEOUT.
func (e *Env) RequestTimeout(d time.Duration) *Env {
	e.t.Helper()
	e.t.Setenv("BW_REQUEST_TIMEOUT", d.String())
	return e
}

// MaxBodyBytes overrides BW_MAX_BODY_BYTES.
func (e *Env) MaxBodyBytes(n int64) *Env {
	e.t.Helper()
	e.t.Setenv("BW_MAX_BODY_BYTES", strconv.FormatInt(n, 10))
	return e
}

// RateLimit overrides BW_RATE_LIMIT_RPS and BW_RATE_LIMIT_BURST.
func (e *Env) RateLimit(rps float64, burst int) *Env {
	e.t.Helper()
	e.t.Setenv("BW_RATE_LIMIT_RPS", strconv.FormatFloat(rps, 'f', -1, 64))
	e.t.Setenv("BW_RATE_LIMIT_BURST", strconv.Itoa(burst))
	return e
}

// TrustForwardedFor overrides BW_TRUST_FORWARDED_FOR.
func (e *Env) TrustForwardedFor(trust bool) *Env {
	e.t.Helper()
	e.t.Setenv("BW_TRUST_FORWARDED_FOR", strconv.FormatBool(trust))
	return e
}

// RequestID overrides BW_REQUEST_ID.
func (e *Env) RequestID(enabled bool) *Env {
	e.t.Helper()
	e.t.Setenv("BW_REQUEST_ID", strconv.FormatBool(enabled))
	return e
}

// Set sets any other variable, typically one of a custom environment.
func (e *Env) Set(key, value string) *Env {
	e.t.Helper()
	e.t.Setenv(key, value)
	return e
}
