package bweb

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
)

// StreamFunc produces a response body chunk by chunk. Each chunk is handed to emit, which returns
// an error wrapping [ErrStreamWrite] once the client can no longer be written to. The context is
// canceled when writing fails or the client goes away.
type StreamFunc func(ctx context.Context, emit func([]byte) error) error

// BodyKind tells how a response carries its body.
type BodyKind uint8

const (
	BodyEmpty BodyKind = iota
	BodyBytes
	BodyStream
)

// Response is the value handlers and middleware return. Status and Header can be changed freely
// by outer middleware; the body is one of empty, fixed bytes or a stream.
type Response struct {
	Status int
	Header http.Header

	body   []byte
	stream StreamFunc
}

// NewResponse creates a response with the given status, no headers and no body.
func NewResponse(status int) *Response {
	return &Response{Status: status, Header: http.Header{}}
}

// Empty creates a response without a body.
func Empty(status int) *Response { return NewResponse(status) }

// Bytes creates a response with a fixed body and the given content type.
func Bytes(status int, contentType string, b []byte) *Response {
	res := NewResponse(status)
	if contentType != "" {
		res.Header.Set("Content-Type", contentType)
	}

	res.body = b

	return res
}

// Text creates a plain text response.
func Text(status int, s string) *Response {
	return Bytes(status, "text/plain; charset=utf-8", []byte(s))
}

// HTML creates an html response.
func HTML(status int, s string) *Response {
	return Bytes(status, "text/html; charset=utf-8", []byte(s))
}

// JSON creates a response with v encoded as JSON. If v cannot be encoded the result is an empty
// 500 response.
func JSON(status int, v any) *Response {
	b, err := json.Marshal(v)
	if err != nil {
		return Empty(http.StatusInternalServerError)
	}

	return Bytes(status, "application/json", b)
}

// Stream creates a response whose body is produced by fn while it is being written.
func Stream(status int, contentType string, fn StreamFunc) *Response {
	res := NewResponse(status)
	if contentType != "" {
		res.Header.Set("Content-Type", contentType)
	}

	res.stream = fn

	return res
}

// StreamReader creates a streamed response that copies rc in chunks of at most chunkSize bytes,
// closing it when done. A chunkSize of zero or less uses 32KiB.
func StreamReader(status int, contentType string, rc io.ReadCloser, chunkSize int) *Response {
	if chunkSize <= 0 {
		chunkSize = 32 << 10
	}

	return Stream(status, contentType, func(ctx context.Context, emit func([]byte) error) error {
		defer rc.Close()

		buf := make([]byte, chunkSize)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			n, err := rc.Read(buf)
			if n > 0 {
				if eerr := emit(buf[:n]); eerr != nil {
					return eerr
				}
			}

			switch {
			case errors.Is(err, io.EOF):
				return nil
			case err != nil:
				return errors.Wrap(err, "read stream source")
			}
		}
	})
}

// Redirect creates a redirect to location.
func Redirect(status int, location string) *Response {
	res := NewResponse(status)
	res.Header.Set("Location", location)

	return res
}

// Kind returns how the body is carried.
func (r *Response) Kind() BodyKind {
	switch {
	case r.stream != nil:
		return BodyStream
	case len(r.body) > 0:
		return BodyBytes
	default:
		return BodyEmpty
	}
}

// Body returns the fixed body, nil for empty and streamed responses.
func (r *Response) Body() []byte { return r.body }

// StreamFunc returns the stream producer, nil unless the body is streamed.
func (r *Response) StreamFunc() StreamFunc { return r.stream }

// SetBody replaces the body with fixed bytes.
func (r *Response) SetBody(b []byte) {
	r.body, r.stream = b, nil
}

// SetStream replaces the body with a stream.
func (r *Response) SetStream(fn StreamFunc) {
	r.body, r.stream = nil, fn
}

// WithHeader sets a header and returns the response for chaining.
func (r *Response) WithHeader(key, value string) *Response {
	r.Header.Set(key, value)
	return r
}

// ReadAll returns the complete body, running the stream producer if there is one.
func (r *Response) ReadAll(ctx context.Context) ([]byte, error) {
	if r.stream == nil {
		return r.body, nil
	}

	var buf bytes.Buffer
	if err := r.stream(ctx, func(b []byte) error {
		buf.Write(b)
		return nil
	}); err != nil {
		return buf.Bytes(), err
	}

	return buf.Bytes(), nil
}

// Finalize prepares res for the wire. A fixed body gets a Content-Length (unless one is set) and
// no Transfer-Encoding, a stream gets "Transfer-Encoding: chunked" and never a Content-Length.
// For HEAD requests the body is dropped while status and headers are kept. Statuses that may not
// carry a body lose it along with the length headers.
func Finalize(res *Response, method string) *Response {
	if res.Header == nil {
		res.Header = http.Header{}
	}

	if !bodyAllowed(res.Status) {
		res.SetBody(nil)
		res.Header.Del("Content-Length")
		res.Header.Del("Transfer-Encoding")

		return res
	}

	switch res.Kind() {
	case BodyStream:
		res.Header.Del("Content-Length")
		res.Header.Set("Transfer-Encoding", "chunked")
	default:
		res.Header.Del("Transfer-Encoding")
		if res.Header.Get("Content-Length") == "" {
			res.Header.Set("Content-Length", strconv.Itoa(len(res.body)))
		}
	}

	if method == http.MethodHead {
		res.SetBody(nil)
	}

	return res
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}

	return true
}
