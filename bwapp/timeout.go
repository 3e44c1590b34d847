package bwapp

import (
	"context"
	"time"
)

// DefaultWriteBuffer is the time the server allows for writing a response on top of the request
// timeout, so a 408 produced when the timeout fires still reaches the client.
const DefaultWriteBuffer = 5 * time.Second

// TimeoutConfig holds timeout configuration for the HTTP server.
type TimeoutConfig struct {
	// RequestTimeout is the time a request may spend in the middleware chain and handler.
	RequestTimeout time.Duration

	// WriteBuffer is added to RequestTimeout for the write timeout. Defaults to
	// DefaultWriteBuffer.
	WriteBuffer time.Duration
}

// ServerTimeouts returns the http.Server timeout values for the request timeout. The server
// timeouts are outer bounds; the request timeout itself is enforced per request by the limits
// middleware, which answers with 408.
func (tc TimeoutConfig) ServerTimeouts() (readHeaderTimeout, readTimeout, writeTimeout, idleTimeout time.Duration) {
	buffer := tc.WriteBuffer
	if buffer <= 0 {
		buffer = DefaultWriteBuffer
	}

	timeout := tc.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Headers are small; a client that cannot send them quickly is stalling.
	readHeaderTimeout = min(timeout, 5*time.Second)

	readTimeout = timeout
	writeTimeout = timeout + buffer
	idleTimeout = max(timeout, 60*time.Second)

	return
}

// RequestRemainingTime returns the duration until the request context deadline.
// Returns 0 if no deadline is set or if the deadline has passed.
func RequestRemainingTime(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	remaining := time.Until(deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}
