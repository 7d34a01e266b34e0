package confirm

import (
	"context"
	"sync"

	"github.com/imamik/icspmerge/internal/diff"
)

// Request is a pending confirmation.
type Request struct {
	Diff *diff.Diff

	once     sync.Once
	decision chan Decision
}

func newRequest(d *diff.Diff) *Request {
	return &Request{Diff: d, decision: make(chan Decision, 1)}
}

// Resolve answers the request. Only the first call has an effect.
func (r *Request) Resolve(d Decision) {
	r.once.Do(func() {
		r.decision <- d
	})
}

// Gate hands pending changes to whoever talks to the operator and blocks
// the caller until a decision is made.
type Gate struct {
	requests chan *Request
}

// NewGate creates a Gate.
func NewGate() *Gate {
	return &Gate{requests: make(chan *Request)}
}

// Requests returns the channel on which pending requests are published.
func (g *Gate) Requests() <-chan *Request {
	return g.requests
}

// Await publishes a request for d and blocks until it is resolved. There
// is no timeout; cancelling ctx resolves to Abort and returns ctx's error.
func (g *Gate) Await(ctx context.Context, d *diff.Diff) (Decision, error) {
	req := newRequest(d)

	select {
	case g.requests <- req:
	case <-ctx.Done():
		return Abort, ctx.Err()
	}

	select {
	case decision := <-req.decision:
		return decision, nil
	case <-ctx.Done():
		return Abort, ctx.Err()
	}
}
