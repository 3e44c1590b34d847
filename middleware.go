package bweb

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

var linkIDs atomic.Uint64

// link is one pre-built step of a composed chain.
type link struct {
	id   uint64
	mw   Middleware
	next Handler
}

func (l *link) ServeBWeb(r *Request) (*Response, error) {
	if err := r.enter(l.id); err != nil {
		return nil, err
	}

	return l.mw.ServeNext(r, l.next)
}

// terminal guards the innermost handler the same way links are guarded.
type terminal struct {
	id uint64
	h  Handler
}

func (t *terminal) ServeBWeb(r *Request) (*Response, error) {
	if err := r.enter(t.id); err != nil {
		return nil, err
	}

	return t.h.ServeBWeb(r)
}

// Compose wraps h with middleware. The order is that of the Gorilla and Chi router. That is: the
// middleware provided first is called first and is the "outer" most wrapping, the middleware
// provided last will be the "inner most" wrapping (closest to the handler). The chain is built once;
// within a single request every continuation runs at most once, a second call returns
// [ErrNextCalledTwice].
func Compose(h Handler, m ...Middleware) Handler {
	if len(m) < 1 {
		return h
	}

	var wrapped Handler = &terminal{id: linkIDs.Add(1), h: h}
	for i := len(m) - 1; i >= 0; i-- {
		if m[i] == nil {
			panic("bweb: nil middleware")
		}

		wrapped = &link{id: linkIDs.Add(1), mw: m[i], next: wrapped}
	}

	return wrapped
}

// enter records that the chain step with the given id has been invoked for this request.
func (r *Request) enter(id uint64) error {
	for _, seen := range r.x.seen {
		if seen == id {
			return errors.WithStack(ErrNextCalledTwice)
		}
	}

	r.x.seen = append(r.x.seen, id)

	return nil
}
