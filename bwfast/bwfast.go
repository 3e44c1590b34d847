// Package bwfast serves a bweb.App from a fasthttp server.
package bwfast

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/advdv/bweb"
	"github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
)

// Handler adapts app into a fasthttp.RequestHandler. Fixed bodies are set directly; streams are
// written through fasthttp's body stream writer, which flushes after every chunk. fasthttp keeps
// ownership of Content-Length and Transfer-Encoding.
func Handler(app *bweb.App, logs bweb.Logger) fasthttp.RequestHandler {
	return func(fctx *fasthttp.RequestCtx) {
		hdr := make(http.Header)
		fctx.Request.Header.VisitAll(func(k, v []byte) {
			hdr.Add(string(k), string(v))
		})

		var body io.ReadCloser = http.NoBody
		if b := fctx.PostBody(); len(b) > 0 {
			body = io.NopCloser(bytes.NewReader(b))
		}

		method := string(fctx.Method())
		res := app.Serve(context.Background(), bweb.RawRequest{
			Method:     method,
			Path:       string(fctx.Path()),
			RawQuery:   string(fctx.QueryArgs().QueryString()),
			Header:     hdr,
			Body:       body,
			RemoteAddr: fctx.RemoteAddr().String(),
		})

		write(fctx, res, method, logs)
	}
}

func write(fctx *fasthttp.RequestCtx, res *bweb.Response, method string, logs bweb.Logger) {
	fctx.SetStatusCode(res.Status)

	for k, vals := range res.Header {
		switch k {
		case "Content-Length", "Transfer-Encoding":
			continue
		}

		for _, v := range vals {
			fctx.Response.Header.Add(k, v)
		}
	}

	if method == http.MethodHead {
		if n, err := strconv.Atoi(res.Header.Get("Content-Length")); err == nil {
			fctx.Response.Header.SetContentLength(n)
		}

		fctx.Response.SkipBody = true

		return
	}

	switch res.Kind() {
	case bweb.BodyBytes:
		fctx.SetBody(res.Body())
	case bweb.BodyStream:
		stream := res.StreamFunc()
		fctx.SetBodyStreamWriter(func(w *bufio.Writer) {
			streamTo(w, stream, logs)
		})
	case bweb.BodyEmpty:
	}
}

// streamTo runs the producer after the request handler returned, so it can't use the request
// context; it gets its own, canceled once writing fails.
func streamTo(w *bufio.Writer, stream bweb.StreamFunc, logs bweb.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var werr error
	emit := func(b []byte) error {
		if werr != nil {
			return werr
		}

		if _, err := w.Write(b); err != nil {
			werr = bweb.StreamWriteError(err, "write chunk")
		} else if err := w.Flush(); err != nil {
			werr = bweb.StreamWriteError(err, "flush chunk")
		}

		if werr != nil {
			cancel()
		}

		return werr
	}

	defer func() {
		if p := recover(); p != nil {
			logs.LogHandlerFault(&bweb.PanicError{Value: p})
		}
	}()

	err := stream(ctx, emit)

	switch {
	case werr != nil:
		logs.LogStreamWriteFailure(werr)
	case err != nil:
		logs.LogHandlerFault(errors.Wrap(err, "stream producer"))
	}
}
