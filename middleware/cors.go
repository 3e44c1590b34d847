package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/advdv/bweb"
	"github.com/samber/lo"
)

// CORSConfig configures [CORS].
type CORSConfig struct {
	// AllowedOrigins lists the allowed origins, "*" allows any.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the number of seconds a preflight result may be cached, not sent when zero.
	MaxAge int
}

// CORS adds cross-origin headers for allowed origins and answers preflight requests with 204
// without calling the rest of the chain. Requests from other origins pass through unchanged.
func CORS(cfg CORSConfig) bweb.Middleware {
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		}
	}

	anyOrigin := lo.Contains(cfg.AllowedOrigins, "*")

	return bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
		origin := r.Header().Get("Origin")
		if origin == "" || (!anyOrigin && !lo.Contains(cfg.AllowedOrigins, origin)) {
			return next.ServeBWeb(r)
		}

		allowOrigin := origin
		if anyOrigin && !cfg.AllowCredentials {
			allowOrigin = "*"
		}

		if r.Method() == http.MethodOptions && r.Header().Get("Access-Control-Request-Method") != "" {
			res := bweb.Empty(http.StatusNoContent)
			res.Header.Set("Access-Control-Allow-Origin", allowOrigin)
			res.Header.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))

			if len(cfg.AllowedHeaders) > 0 {
				res.Header.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
			} else if reqHdrs := r.Header().Get("Access-Control-Request-Headers"); reqHdrs != "" {
				res.Header.Set("Access-Control-Allow-Headers", reqHdrs)
			}

			if cfg.MaxAge > 0 {
				res.Header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}

			setCredentials(res, cfg, allowOrigin)

			return res, nil
		}

		res, err := next.ServeBWeb(r)
		if err != nil || res == nil {
			return res, err
		}

		res.Header.Set("Access-Control-Allow-Origin", allowOrigin)

		if len(cfg.ExposedHeaders) > 0 {
			res.Header.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
		}

		setCredentials(res, cfg, allowOrigin)

		return res, nil
	})
}

func setCredentials(res *bweb.Response, cfg CORSConfig, allowOrigin string) {
	if allowOrigin != "*" {
		res.Header.Add("Vary", "Origin")
	}

	if cfg.AllowCredentials {
		res.Header.Set("Access-Control-Allow-Credentials", "true")
	}
}
