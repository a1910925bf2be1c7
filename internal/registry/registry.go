// Package registry tracks in-flight calls keyed by correlation token.
//
// Every registered call is settled exactly once: by a matching reply, by its
// timer, or by SettleAll. Whoever removes the entry under the lock owns the
// settlement; the losers observe a missing token and do nothing.
package registry

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/message"
)

// SettleFunc delivers the final Response of a call.
type SettleFunc func(message.Response)

type pending struct {
	settle SettleFunc
	timer  *clock.Timer
}

// Registry is a concurrency-safe table of pending calls.
type Registry struct {
	clock clock.Clock

	mu      sync.Mutex
	pending map[string]*pending
}

// New creates a registry whose timers run on clk. A nil clk uses the wall clock.
func New(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.New()
	}

	return &Registry{
		clock:   clk,
		pending: make(map[string]*pending, 8),
	}
}

// Register records a pending call under token.
//
// When timeout is positive a timer is armed; if it fires before a reply, the
// entry is removed and settled with onTimeout(). A non-positive timeout waits
// indefinitely.
func (r *Registry) Register(
	token string,
	settle SettleFunc,
	timeout time.Duration,
	onTimeout func() message.Response,
) error {
	p := &pending{settle: settle}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pending[token]; exists {
		return errors.ErrDuplicateToken
	}

	if timeout > 0 {
		p.timer = r.clock.AfterFunc(timeout, func() {
			if r.take(token, p) {
				p.settle(onTimeout())
			}
		})
	}

	r.pending[token] = p

	return nil
}

// Settle completes the call registered under token with resp.
// It reports false when no such call is pending.
func (r *Registry) Settle(token string, resp message.Response) bool {
	r.mu.Lock()

	p, ok := r.pending[token]
	if ok {
		delete(r.pending, token)
	}

	r.mu.Unlock()

	if !ok {
		return false
	}

	p.stop()
	p.settle(resp)

	return true
}

// CancelAndRemove drops the call without settling it.
func (r *Registry) CancelAndRemove(token string) bool {
	r.mu.Lock()

	p, ok := r.pending[token]
	if ok {
		delete(r.pending, token)
	}

	r.mu.Unlock()

	if ok {
		p.stop()
	}

	return ok
}

// SettleAll removes every pending call and settles each with fn(token).
// It returns the number of calls settled.
func (r *Registry) SettleAll(fn func(token string) message.Response) int {
	r.mu.Lock()
	drained := r.pending
	r.pending = make(map[string]*pending, 8)
	r.mu.Unlock()

	for token, p := range drained {
		p.stop()
		p.settle(fn(token))
	}

	return len(drained)
}

// Len returns the number of pending calls.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pending)
}

// Has reports whether token is pending.
func (r *Registry) Has(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.pending[token]

	return ok
}

// take removes token only if it still maps to p.
func (r *Registry) take(token string, p *pending) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending[token] != p {
		return false
	}

	delete(r.pending, token)

	return true
}

func (p *pending) stop() {
	if p.timer != nil {
		p.timer.Stop()
	}
}
