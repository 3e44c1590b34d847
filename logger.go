package bweb

import (
	"log"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogHandlerFault(err error)
	LogStreamWriteFailure(err error)
	LogRouteConflict(err error)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogHandlerFault(err error) {
	l.Logger.Printf("bweb: handler fault: %s", err)
}

func (l stdLogger) LogStreamWriteFailure(err error) {
	l.Logger.Printf("bweb: stream write failed: %s", err)
}

func (l stdLogger) LogRouteConflict(err error) {
	l.Logger.Printf("bweb: route conflict: %s", err)
}

func NewStdLogger(l *log.Logger) Logger {
	return stdLogger{l}
}

type zapLogger struct{ logs *zap.Logger }

func (l zapLogger) LogHandlerFault(err error) {
	l.logs.Error("handler fault", zap.Error(err))
}

// LogStreamWriteFailure logs at debug, clients going away mid-stream is routine.
func (l zapLogger) LogStreamWriteFailure(err error) {
	l.logs.Debug("stream write failed", zap.Error(err))
}

func (l zapLogger) LogRouteConflict(err error) {
	l.logs.Error("route conflict", zap.Error(err))
}

// NewZapLogger reports through a zap logger.
func NewZapLogger(logs *zap.Logger) Logger {
	return zapLogger{logs.Named("bweb")}
}

type TestLogger struct {
	tb testing.TB

	NumLogHandlerFault       int64
	NumLogStreamWriteFailure int64
	NumLogRouteConflict      int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogHandlerFault(err error) {
	atomic.AddInt64(&l.NumLogHandlerFault, 1)
	l.logf("bweb: handler fault: %s", err)
}

func (l *TestLogger) LogStreamWriteFailure(err error) {
	atomic.AddInt64(&l.NumLogStreamWriteFailure, 1)
	l.logf("bweb: stream write failed: %s", err)
}

func (l *TestLogger) LogRouteConflict(err error) {
	atomic.AddInt64(&l.NumLogRouteConflict, 1)
	l.logf("bweb: route conflict: %s", err)
}

func (l *TestLogger) logf(format string, args ...any) {
	if l.tb != nil {
		l.tb.Logf(format, args...)
	}
}

var _ Logger = &TestLogger{}
