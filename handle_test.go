package bweb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bweb"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// brokenWriter accepts the header and fails every body write after the first limit bytes.
type brokenWriter struct {
	*httptest.ResponseRecorder
	limit int
}

func (w *brokenWriter) Write(b []byte) (int, error) {
	if w.Body.Len()+len(b) > w.limit {
		return 0, errors.New("broken pipe")
	}

	return w.ResponseRecorder.Write(b)
}

func TestWriteToFixed(t *testing.T) {
	logs := bweb.NewTestLogger(t)
	rec := httptest.NewRecorder()

	res := bweb.Finalize(bweb.Text(http.StatusAccepted, "done").WithHeader("X-A", "1"), http.MethodGet)
	bweb.WriteTo(context.Background(), rec, res, logs)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "done", rec.Body.String())
	require.Equal(t, "1", rec.Header().Get("X-A"))
	require.Equal(t, "4", rec.Header().Get("Content-Length"))
}

func TestWriteToStreamWriteFailure(t *testing.T) {
	logs := bweb.NewTestLogger(t)
	w := &brokenWriter{ResponseRecorder: httptest.NewRecorder(), limit: 2}

	var emitErr error
	var sawCancel bool

	res := bweb.Finalize(bweb.Stream(http.StatusOK, "text/plain", func(ctx context.Context, emit func([]byte) error) error {
		for _, c := range []string{"a", "b", "c", "d"} {
			if err := emit([]byte(c)); err != nil {
				emitErr = err
				sawCancel = ctx.Err() != nil

				return err
			}
		}

		return nil
	}), http.MethodGet)

	bweb.WriteTo(context.Background(), w, res, logs)

	require.ErrorIs(t, emitErr, bweb.ErrStreamWrite)
	require.True(t, sawCancel)
	require.Equal(t, "ab", w.Body.String())
	require.Equal(t, int64(1), logs.NumLogStreamWriteFailure)
	require.Equal(t, int64(0), logs.NumLogHandlerFault)
}

func TestWriteToStreamProducerFault(t *testing.T) {
	logs := bweb.NewTestLogger(t)
	rec := httptest.NewRecorder()

	res := bweb.Finalize(bweb.Stream(http.StatusOK, "", func(_ context.Context, emit func([]byte) error) error {
		if err := emit([]byte("partial")); err != nil {
			return err
		}

		return errors.New("source went away")
	}), http.MethodGet)
	bweb.WriteTo(context.Background(), rec, res, logs)

	require.Equal(t, "partial", rec.Body.String())
	require.Equal(t, int64(1), logs.NumLogHandlerFault)

	panicking := bweb.Finalize(bweb.Stream(http.StatusOK, "", func(context.Context, func([]byte) error) error {
		panic("producer bug")
	}), http.MethodGet)
	bweb.WriteTo(context.Background(), httptest.NewRecorder(), panicking, logs)
	require.Equal(t, int64(2), logs.NumLogHandlerFault)
}

func TestWriteToClientGone(t *testing.T) {
	logs := bweb.NewTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())

	res := bweb.Finalize(bweb.Stream(http.StatusOK, "", func(ctx context.Context, emit func([]byte) error) error {
		cancel()
		<-ctx.Done()

		return ctx.Err()
	}), http.MethodGet)
	bweb.WriteTo(ctx, httptest.NewRecorder(), res, logs)

	require.Equal(t, int64(0), logs.NumLogHandlerFault)
	require.Equal(t, int64(0), logs.NumLogStreamWriteFailure)
}
