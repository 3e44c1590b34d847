package middleware_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/advdv/bweb"
	"github.com/advdv/bweb/middleware"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gunzip(t *testing.T, b []byte) string {
	t.Helper()

	zr, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)

	out, err := io.ReadAll(zr)
	require.NoError(t, err)

	return string(out)
}

func compressApp() *bweb.App {
	app := bweb.New()
	app.Use(middleware.Compress(middleware.DefaultCompress()))
	app.Get("/big", text(strings.Repeat("hello world ", 200)))
	app.Get("/small", text("tiny"))
	app.Get("/png", func(*bweb.Request) (*bweb.Response, error) {
		return bweb.Bytes(http.StatusOK, "image/png", bytes.Repeat([]byte{1}, 4096)), nil
	})
	app.Get("/stream", func(*bweb.Request) (*bweb.Response, error) {
		return bweb.Stream(http.StatusOK, "text/plain", func(_ context.Context, emit func([]byte) error) error {
			for i := 0; i < 3; i++ {
				if err := emit([]byte("chunk ")); err != nil {
					return err
				}
			}

			return nil
		}), nil
	})

	return app
}

func TestCompressFixed(t *testing.T) {
	app := compressApp()
	gz := http.Header{"Accept-Encoding": {"br, gzip;q=0.8"}}

	res := do(t, app, http.MethodGet, "/big", gz)
	require.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
	require.Equal(t, "Accept-Encoding", res.Header.Get("Vary"))
	require.Less(t, len(res.Body()), 2400)
	require.Equal(t, strings.Repeat("hello world ", 200), gunzip(t, res.Body()))
	require.NotEqual(t, "2400", res.Header.Get("Content-Length"))

	assert.Empty(t, do(t, app, http.MethodGet, "/small", gz).Header.Get("Content-Encoding"))
	assert.Empty(t, do(t, app, http.MethodGet, "/png", gz).Header.Get("Content-Encoding"))
	assert.Empty(t, do(t, app, http.MethodGet, "/big", nil).Header.Get("Content-Encoding"))
	assert.Empty(t, do(t, app, http.MethodGet, "/big", http.Header{"Accept-Encoding": {"gzip;q=0"}}).Header.Get("Content-Encoding"))
}

func TestCompressStream(t *testing.T) {
	app := compressApp()

	res := do(t, app, http.MethodGet, "/stream", http.Header{"Accept-Encoding": {"gzip"}})
	require.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
	require.Equal(t, "chunked", res.Header.Get("Transfer-Encoding"))

	var chunks int
	var buf bytes.Buffer
	require.NoError(t, res.StreamFunc()(context.Background(), func(b []byte) error {
		chunks++
		buf.Write(b)

		return nil
	}))

	require.GreaterOrEqual(t, chunks, 4)
	require.Equal(t, "chunk chunk chunk ", gunzip(t, buf.Bytes()))
}
