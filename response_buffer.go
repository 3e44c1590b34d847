package bweb

import (
	"bytes"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ResponseBuffer is an http.ResponseWriter that keeps everything in memory so a standard library
// handler's output can be turned into a [Response].
type ResponseBuffer struct {
	header      http.Header
	status      int
	wroteHeader bool
	buf         bytes.Buffer
}

// NewResponseBuffer creates an empty buffer. The status is 200 unless WriteHeader says otherwise.
func NewResponseBuffer() *ResponseBuffer {
	return &ResponseBuffer{header: http.Header{}, status: http.StatusOK}
}

func (b *ResponseBuffer) Header() http.Header { return b.header }

func (b *ResponseBuffer) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}

	b.status, b.wroteHeader = status, true
}

func (b *ResponseBuffer) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	return b.buf.Write(p)
}

// Response converts what was written into a response. Headers are copied as they were when the
// status was written.
func (b *ResponseBuffer) Response() *Response {
	res := NewResponse(b.status)
	res.Header = b.header.Clone()
	res.Header.Del("Content-Length")

	if b.buf.Len() > 0 {
		res.SetBody(bytes.Clone(b.buf.Bytes()))
	}

	return res
}

// FromStd adapts a standard library handler. The request it sees carries the context, headers,
// body and path of r; its output is buffered completely.
func FromStd(h http.Handler) Handler {
	return HandlerFunc(func(r *Request) (*Response, error) {
		target := r.Path()
		if r.RawQuery() != "" {
			target += "?" + r.RawQuery()
		}

		req, err := http.NewRequestWithContext(r.Context(), r.Method(), target, r.Body())
		if err != nil {
			return nil, errors.Wrap(err, "build standard library request")
		}

		req.Header = r.Header()
		req.RemoteAddr = r.RemoteAddr()

		buf := NewResponseBuffer()
		h.ServeHTTP(buf, req)

		return buf.Response(), nil
	})
}
