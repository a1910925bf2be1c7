// Package fanout implements the listener set shared by transports.
package fanout

import (
	"slices"
	"sync"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
)

// Set is a concurrency-safe set of listeners.
type Set struct {
	mu        sync.RWMutex
	next      uint64
	listeners map[uint64]config.Listener
}

// Add registers fn and returns an idempotent remove function.
func (s *Set) Add(fn config.Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[uint64]config.Listener, 2)
	}

	id := s.next
	s.next++
	s.listeners[id] = fn

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Emit delivers msg to every listener registered at the time of the call.
// Listeners run on the caller's goroutine, in registration order.
func (s *Set) Emit(msg map[string]any) {
	s.mu.RLock()

	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}

	fns := make([]config.Listener, 0, len(ids))

	slices.Sort(ids)

	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}

	s.mu.RUnlock()

	for _, fn := range fns {
		fn(msg)
	}
}

// Len returns the number of registered listeners.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.listeners)
}
