package middleware

import (
	"context"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/advdv/bweb"
	"github.com/cockroachdb/errors"
)

// LimitsConfig bounds the size and duration of requests. A zero value disables a limit.
type LimitsConfig struct {
	MaxPathLength  int
	MaxHeaderCount int
	// MaxHeaderBytes bounds the length of a single header's name plus value.
	MaxHeaderBytes int
	MaxBodyBytes   int64
	Timeout        time.Duration
}

// DefaultLimits returns a 2048 byte path, 100 headers of at most 8KiB each, a 1MiB body and a 30
// second timeout.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxPathLength:  2048,
		MaxHeaderCount: 100,
		MaxHeaderBytes: 8 << 10,
		MaxBodyBytes:   1 << 20,
		Timeout:        30 * time.Second,
	}
}

// Limits rejects oversized requests before they reach the rest of the chain: 414 for long paths,
// 431 for too many or too large headers and 413 for bodies whose declared length is too large.
// Bodies without a declared length are cut off while being read, with a 413 error. Requests that
// take longer than the timeout are answered with 408; the rest of the chain sees a canceled
// context and keeps running on a detached copy of the request whose eventual result and state
// are discarded.
func Limits(cfg LimitsConfig) bweb.Middleware {
	return bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
		if cfg.MaxPathLength > 0 && len(r.Path()) > cfg.MaxPathLength {
			return bweb.Text(http.StatusRequestURITooLong, "URI Too Long"), nil
		}

		if res := checkHeaders(r.Header(), cfg); res != nil {
			return res, nil
		}

		if cfg.MaxBodyBytes > 0 {
			if cl := r.Header().Get("Content-Length"); cl != "" {
				if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n > cfg.MaxBodyBytes {
					return bweb.Text(http.StatusRequestEntityTooLarge, "Payload Too Large"), nil
				}
			}

			r.SetBody(&limitedBody{rc: r.Body(), left: cfg.MaxBodyBytes})
		}

		if cfg.Timeout <= 0 {
			return next.ServeBWeb(r)
		}

		return withTimeout(r, next, cfg.Timeout)
	})
}

func checkHeaders(hdr http.Header, cfg LimitsConfig) *bweb.Response {
	if cfg.MaxHeaderCount <= 0 && cfg.MaxHeaderBytes <= 0 {
		return nil
	}

	var count int
	for name, vals := range hdr {
		count += len(vals)

		for _, v := range vals {
			if cfg.MaxHeaderBytes > 0 && len(name)+len(v) > cfg.MaxHeaderBytes {
				return bweb.Text(http.StatusRequestHeaderFieldsTooLarge, "Request Header Fields Too Large")
			}
		}
	}

	if cfg.MaxHeaderCount > 0 && count > cfg.MaxHeaderCount {
		return bweb.Text(http.StatusRequestHeaderFieldsTooLarge, "Request Header Fields Too Large")
	}

	return nil
}

type outcome struct {
	res *bweb.Response
	err error
}

func withTimeout(r *bweb.Request, next bweb.Handler, timeout time.Duration) (*bweb.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	done := make(chan outcome, 1)
	dr := r.Detach(ctx)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: &bweb.PanicError{Value: p, Stack: debug.Stack()}}
			}
		}()

		res, err := next.ServeBWeb(dr)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		r.Adopt(dr)
		return out.res, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return bweb.Text(http.StatusRequestTimeout, "Request Timeout"), nil
		}

		return nil, errors.Wrap(ctx.Err(), "request abandoned")
	}
}

type limitedBody struct {
	rc   io.ReadCloser
	left int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.left < 0 {
		return 0, errBodyTooLarge()
	}

	if int64(len(p)) > b.left+1 {
		p = p[:b.left+1]
	}

	n, err := b.rc.Read(p)
	b.left -= int64(n)

	if b.left < 0 {
		return n + int(b.left), errBodyTooLarge()
	}

	return n, err //nolint:wrapcheck
}

func (b *limitedBody) Close() error { return b.rc.Close() } //nolint:wrapcheck

func errBodyTooLarge() error {
	return bweb.NewError(bweb.CodeRequestEntityTooLarge, errors.New("request body too large"))
}
