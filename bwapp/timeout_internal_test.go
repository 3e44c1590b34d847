package bwapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("test")

func TestTimeoutConfigServerTimeouts(t *testing.T) {
	tests := []struct {
		name                  string
		cfg                   TimeoutConfig
		wantReadHeaderTimeout time.Duration
		wantReadTimeout       time.Duration
		wantWriteTimeout      time.Duration
		wantIdleTimeout       time.Duration
	}{
		{
			name:                  "short request timeout caps the header timeout",
			cfg:                   TimeoutConfig{RequestTimeout: 2 * time.Second},
			wantReadHeaderTimeout: 2 * time.Second,
			wantReadTimeout:       2 * time.Second,
			wantWriteTimeout:      2*time.Second + DefaultWriteBuffer,
			wantIdleTimeout:       60 * time.Second,
		},
		{
			name:                  "typical request timeout",
			cfg:                   TimeoutConfig{RequestTimeout: 30 * time.Second},
			wantReadHeaderTimeout: 5 * time.Second,
			wantReadTimeout:       30 * time.Second,
			wantWriteTimeout:      35 * time.Second,
			wantIdleTimeout:       60 * time.Second,
		},
		{
			name:                  "long request timeout extends idle",
			cfg:                   TimeoutConfig{RequestTimeout: 5 * time.Minute, WriteBuffer: time.Second},
			wantReadHeaderTimeout: 5 * time.Second,
			wantReadTimeout:       5 * time.Minute,
			wantWriteTimeout:      5*time.Minute + time.Second,
			wantIdleTimeout:       5 * time.Minute,
		},
		{
			name:                  "zero falls back to thirty seconds",
			cfg:                   TimeoutConfig{},
			wantReadHeaderTimeout: 5 * time.Second,
			wantReadTimeout:       30 * time.Second,
			wantWriteTimeout:      35 * time.Second,
			wantIdleTimeout:       60 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rh, r, w, i := tt.cfg.ServerTimeouts()
			assert.Equal(t, tt.wantReadHeaderTimeout, rh, "readHeaderTimeout")
			assert.Equal(t, tt.wantReadTimeout, r, "readTimeout")
			assert.Equal(t, tt.wantWriteTimeout, w, "writeTimeout")
			assert.Equal(t, tt.wantIdleTimeout, i, "idleTimeout")
		})
	}
}

func TestRequestRemainingTime(t *testing.T) {
	require.Zero(t, RequestRemainingTime(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	remaining := RequestRemainingTime(ctx)
	require.Greater(t, remaining, 59*time.Minute)
	require.LessOrEqual(t, remaining, time.Hour)

	past, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	require.Zero(t, RequestRemainingTime(past))
}
