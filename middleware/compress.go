package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/advdv/bweb"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
)

// CompressConfig configures [Compress].
type CompressConfig struct {
	// Level is a gzip level, gzip.DefaultCompression when zero.
	Level int
	// MinSize is the smallest fixed body that is compressed. Streams are always compressed.
	MinSize int
	// ContentTypes are prefixes of the content types that are compressed. When empty, every
	// content type is.
	ContentTypes []string
}

// DefaultCompress compresses text, JSON, JavaScript and XML bodies of at least 1KiB.
func DefaultCompress() CompressConfig {
	return CompressConfig{
		Level:   6,
		MinSize: 1024,
		ContentTypes: []string{
			"text/",
			"application/json",
			"application/javascript",
			"application/xml",
			"application/rss+xml",
			"application/atom+xml",
		},
	}
}

// Compress gzips response bodies for clients that accept it. Fixed bodies are compressed at once,
// streamed bodies chunk by chunk with a flush after every chunk so they keep streaming.
func Compress(cfg CompressConfig) bweb.Middleware {
	if cfg.Level == 0 {
		cfg.Level = gzip.DefaultCompression
	}

	return bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
		res, err := next.ServeBWeb(r)
		if err != nil || res == nil || !acceptsGzip(r.Header()) || !cfg.compressible(res) {
			return res, err
		}

		switch res.Kind() {
		case bweb.BodyBytes:
			if len(res.Body()) < cfg.MinSize {
				return res, nil
			}

			var buf bytes.Buffer

			zw, err := gzip.NewWriterLevel(&buf, cfg.Level)
			if err != nil {
				return nil, errors.Wrap(err, "init gzip writer")
			}

			if _, err := zw.Write(res.Body()); err != nil {
				return nil, errors.Wrap(err, "gzip body")
			}

			if err := zw.Close(); err != nil {
				return nil, errors.Wrap(err, "close gzip writer")
			}

			res.SetBody(buf.Bytes())
		case bweb.BodyStream:
			res.SetStream(gzipStream(res.StreamFunc(), cfg.Level))
		default:
			return res, nil
		}

		res.Header.Set("Content-Encoding", "gzip")
		res.Header.Add("Vary", "Accept-Encoding")
		res.Header.Del("Content-Length")

		return res, nil
	})
}

func gzipStream(inner bweb.StreamFunc, level int) bweb.StreamFunc {
	return func(ctx context.Context, emit func([]byte) error) error {
		var buf bytes.Buffer

		zw, err := gzip.NewWriterLevel(&buf, level)
		if err != nil {
			return errors.Wrap(err, "init gzip writer")
		}

		drain := func() error {
			if buf.Len() == 0 {
				return nil
			}

			chunk := bytes.Clone(buf.Bytes())
			buf.Reset()

			return emit(chunk)
		}

		if err := inner(ctx, func(b []byte) error {
			if _, err := zw.Write(b); err != nil {
				return errors.Wrap(err, "gzip chunk")
			}

			if err := zw.Flush(); err != nil {
				return errors.Wrap(err, "flush gzip chunk")
			}

			return drain()
		}); err != nil {
			return err
		}

		if err := zw.Close(); err != nil {
			return errors.Wrap(err, "close gzip writer")
		}

		return drain()
	}
}

func (cfg CompressConfig) compressible(res *bweb.Response) bool {
	if res.Header.Get("Content-Encoding") != "" {
		return false
	}

	if len(cfg.ContentTypes) == 0 {
		return true
	}

	ct := res.Header.Get("Content-Type")
	if ct == "" {
		return false
	}

	for _, prefix := range cfg.ContentTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}

	return false
}

func acceptsGzip(hdr http.Header) bool {
	for _, v := range hdr.Values("Accept-Encoding") {
		for _, part := range strings.Split(v, ",") {
			name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
			if !strings.EqualFold(strings.TrimSpace(name), "gzip") && strings.TrimSpace(name) != "*" {
				continue
			}

			if strings.ReplaceAll(strings.TrimSpace(params), " ", "") == "q=0" {
				return false
			}

			return true
		}
	}

	return false
}
