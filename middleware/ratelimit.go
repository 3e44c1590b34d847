package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/advdv/bweb"
	"golang.org/x/time/rate"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *bweb.Request) string

// RateLimitConfig configures [RateLimit].
type RateLimitConfig struct {
	// RPS is the sustained number of requests per second per key, 5 when zero.
	RPS float64
	// Burst is the number of requests a key may make at once, 10 when zero.
	Burst int
	// Key defaults to [ClientIP], or [ForwardedClientIP] when TrustForwardedFor is set.
	Key KeyFunc
	// TrustForwardedFor keys requests by the X-Forwarded-For header. Only enable it behind a proxy
	// that overwrites the header, clients can put anything in it.
	TrustForwardedFor bool
	// IdleTTL is how long a key's bucket is kept after its last request, 10 minutes when zero.
	IdleTTL time.Duration
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

type limiterPool struct {
	mu        sync.Mutex
	m         map[string]*limiterEntry
	lastSweep time.Time
	cfg       RateLimitConfig
	now       func() time.Time
}

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	return &limiterPool{m: make(map[string]*limiterEntry), cfg: cfg, now: time.Now}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Sub(p.lastSweep) >= p.cfg.IdleTTL {
		p.sweep(now)
	}

	e, ok := p.m[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(p.cfg.RPS), p.cfg.Burst)}
		p.m[key] = e
	}

	e.seen = now

	return e.lim
}

// sweep drops the buckets of keys that have been idle for longer than the ttl. Callers hold mu.
func (p *limiterPool) sweep(now time.Time) {
	for key, e := range p.m {
		if now.Sub(e.seen) >= p.cfg.IdleTTL {
			delete(p.m, key)
		}
	}

	p.lastSweep = now
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.m)
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}

	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}

	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	if cfg.Key == nil {
		cfg.Key = ClientIP
		if cfg.TrustForwardedFor {
			cfg.Key = ForwardedClientIP
		}
	}

	return cfg
}

// RateLimit answers with 429 and a Retry-After header once a key exceeds its token bucket.
func RateLimit(cfg RateLimitConfig) bweb.Middleware {
	cfg = cfg.withDefaults()
	pool := newLimiterPool(cfg)

	return bweb.MiddlewareFunc(func(r *bweb.Request, next bweb.Handler) (*bweb.Response, error) {
		rsv := pool.get(cfg.Key(r)).Reserve()
		if delay := rsv.Delay(); delay > 0 {
			rsv.Cancel()

			res := bweb.Text(http.StatusTooManyRequests, "Too Many Requests")
			res.Header.Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))

			return res, nil
		}

		return next.ServeBWeb(r)
	})
}

// ClientIP keys requests by the remote address without its port.
func ClientIP(r *bweb.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr())
	if err != nil {
		return r.RemoteAddr()
	}

	return host
}

// ForwardedClientIP keys requests by the first X-Forwarded-For address, falling back to
// [ClientIP]. The header is set by the client unless a proxy replaces it.
func ForwardedClientIP(r *bweb.Request) string {
	if fwd := r.Header().Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	return ClientIP(r)
}
