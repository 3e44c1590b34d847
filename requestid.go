package bweb

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// DefaultRequestIDHeader is the header the request ID is read from and written to.
const DefaultRequestIDHeader = "X-Request-Id"

// RequestID is the request-scoped store entry holding the request's ID.
type RequestID string

var requestIDCounter atomic.Uint64

// NewRequestID generates an ID of the form "<hex unix micros>-<hex counter>".
func NewRequestID() string {
	micros := uint64(time.Now().UnixMicro()) //nolint:gosec
	seq := requestIDCounter.Add(1) - 1

	return strconv.FormatUint(micros, 16) + "-" + strconv.FormatUint(seq, 16)
}

// RequestIDMiddleware reuses a non-empty inbound header value as the request ID or generates a
// new one. The ID is available from [Request.ID], the request header and the request store, and is
// set on the response unless the response already carries the header.
func RequestIDMiddleware(header string) Middleware {
	if header == "" {
		header = DefaultRequestIDHeader
	}

	return MiddlewareFunc(func(r *Request, next Handler) (*Response, error) {
		id := r.Header().Get(header)
		if id == "" {
			id = NewRequestID()
			r.Header().Set(header, id)
		}

		r.x.id = id
		SetRequestData(r, RequestID(id))

		res, err := next.ServeBWeb(r)
		if err != nil {
			return nil, err
		}

		if res != nil && res.Header.Get(header) == "" {
			if res.Header == nil {
				res.Header = http.Header{}
			}

			res.Header.Set(header, id)
		}

		return res, nil
	})
}
