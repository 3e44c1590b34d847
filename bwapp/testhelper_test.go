package bwapp_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/advdv/bweb"
	"github.com/advdv/bweb/bwapp"
	"github.com/carlmjohnson/requests"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestEnv is a test environment with app-specific fields beyond BaseEnvironment.
type TestEnv struct {
	bwapp.BaseEnvironment
	Greeting string `env:"APP_GREETING" envDefault:"hello"`
}

// Handlers demonstrates fx injection of the runtime.
type Handlers struct {
	rt *bwapp.Runtime[TestEnv]
}

func NewHandlers(rt *bwapp.Runtime[TestEnv]) *Handlers {
	return &Handlers{rt: rt}
}

func (h *Handlers) Greet(r *bweb.Request) (*bweb.Response, error) {
	env, ok := bweb.AppData[TestEnv](r)
	if !ok {
		return nil, bweb.Internal("no env in app store")
	}

	bwapp.Log(r).Info("greeting", zap.String("name", r.Param("name")))
	bwapp.Span(r).AddEvent("greet")

	return bweb.JSON(http.StatusOK, map[string]string{
		"greeting": h.rt.Env().Greeting + " " + r.Param("name"),
		"service":  env.ServiceName,
	}), nil
}

func (h *Handlers) Self(r *bweb.Request) (*bweb.Response, error) {
	url, err := h.rt.Reverse("greet", r.Param("name"))
	if err != nil {
		return nil, err
	}

	return bweb.JSON(http.StatusOK, map[string]string{"url": url}), nil
}

func (h *Handlers) Fail(*bweb.Request) (*bweb.Response, error) {
	return nil, bweb.Unprocessable("nope")
}

func (h *Handlers) Slow(r *bweb.Request) (*bweb.Response, error) {
	<-r.Context().Done()
	return nil, r.Context().Err()
}

func routing(a *bweb.App, h *Handlers) {
	a.Get("/greet/{name}", h.Greet, "greet")
	a.Get("/self/{name}", h.Self)
	a.Get("/fail", h.Fail)
	a.Get("/slow", h.Slow)
	a.Post("/echo", func(r *bweb.Request) (*bweb.Response, error) {
		b, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		return bweb.Bytes(http.StatusOK, "application/octet-stream", b), nil
	})
}

func acceptAny(*http.Response) error { return nil }

type fetched struct {
	status int
	header http.Header
	body   string
}

// fetch performs a request with carlmjohnson/requests and captures the response, whatever its
// status.
func fetch(t *testing.T, method, url string, body []byte) fetched {
	t.Helper()

	var out fetched
	b := requests.URL(url).Method(method).AddValidator(acceptAny).Handle(func(res *http.Response) error {
		out.status, out.header = res.StatusCode, res.Header

		data, err := io.ReadAll(res.Body)
		out.body = string(data)

		return err
	})

	if body != nil {
		b = b.BodyBytes(body)
	}

	require.NoError(t, b.Fetch(context.Background()))

	return out
}
