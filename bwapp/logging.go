package bwapp

import (
	"context"

	"github.com/advdv/bweb"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// Uses JSON encoding with an ISO8601 "timestamp" field.
// BW_LOG_LEVEL controls the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build(zap.Fields(zap.String("service", env.serviceName())))
}

// provideLogger builds the logger and flushes it when the app stops. Hooks run in reverse, so the
// flush happens after the server has drained.
func provideLogger(lc fx.Lifecycle, env Environment) (*zap.Logger, error) {
	logs, err := NewLogger(env)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = logs.Sync() // stdout and stderr may not support fsync
			return nil
		},
	})

	return logs, nil
}

func newBWebLogger(l *zap.Logger) bweb.Logger {
	return bweb.NewZapLogger(l.Named("bwapp"))
}
