package bwapp

import (
	"time"

	"github.com/advdv/bweb/middleware"
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	logLevel() zapcore.Level
	otelExporter() string
	requestID() bool
	healthPath() string
	metricsPath() string
	maxBodyBytes() int64
	requestTimeout() time.Duration
	rateLimit() middleware.RateLimitConfig
	shutdownTimeout() time.Duration
}

// BaseEnvironment contains the environment variables every bwapp service reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port        int           `env:"BW_PORT,required"`
	ServiceName string        `env:"BW_SERVICE_NAME,required"`
	LogLevel    zapcore.Level `env:"BW_LOG_LEVEL" envDefault:"info"`
	// OtelExporter selects where spans go: "stdout" or "none".
	OtelExporter string `env:"BW_OTEL_EXPORTER" envDefault:"none"`
	RequestID    bool   `env:"BW_REQUEST_ID" envDefault:"true"`
	HealthPath   string `env:"BW_HEALTH_PATH" envDefault:"/healthz"`
	MetricsPath  string `env:"BW_METRICS_PATH" envDefault:"/metrics"`
	MaxBodyBytes int64  `env:"BW_MAX_BODY_BYTES" envDefault:"1048576"`
	// RequestTimeout bounds the time a request may spend in the middleware chain and handler.
	RequestTimeout time.Duration `env:"BW_REQUEST_TIMEOUT" envDefault:"30s"`
	// RateLimitRPS enables per-client rate limiting when above zero.
	RateLimitRPS   float64 `env:"BW_RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"BW_RATE_LIMIT_BURST" envDefault:"10"`
	// TrustForwardedFor keys the rate limit by X-Forwarded-For. Only set it behind a proxy that
	// overwrites the header.
	TrustForwardedFor bool          `env:"BW_TRUST_FORWARDED_FOR" envDefault:"false"`
	ShutdownTimeout   time.Duration `env:"BW_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

func (e BaseEnvironment) port() int                      { return e.Port }
func (e BaseEnvironment) serviceName() string            { return e.ServiceName }
func (e BaseEnvironment) logLevel() zapcore.Level        { return e.LogLevel }
func (e BaseEnvironment) otelExporter() string           { return e.OtelExporter }
func (e BaseEnvironment) requestID() bool                { return e.RequestID }
func (e BaseEnvironment) healthPath() string             { return e.HealthPath }
func (e BaseEnvironment) metricsPath() string            { return e.MetricsPath }
func (e BaseEnvironment) maxBodyBytes() int64            { return e.MaxBodyBytes }
func (e BaseEnvironment) requestTimeout() time.Duration  { return e.RequestTimeout }
func (e BaseEnvironment) shutdownTimeout() time.Duration { return e.ShutdownTimeout }

func (e BaseEnvironment) rateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RPS:               e.RateLimitRPS,
		Burst:             e.RateLimitBurst,
		TrustForwardedFor: e.TrustForwardedFor,
	}
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}

// LoadDotenv reads the given files into the process environment, ".env" when none are given.
// Variables that are already set keep their value.
func LoadDotenv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return errors.Wrapf(err, "failed to load dotenv files %v", files)
	}
	return nil
}
