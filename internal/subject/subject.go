// Package subject provides the minimal observable primitive used by the
// form engine's three notification channels.
package subject

import (
	"sync"
	"sync/atomic"
)

// Observer receives values published on a Subject.
type Observer[T any] func(T)

// Subscription detaches one observer from its Subject.
type Subscription struct {
	once  sync.Once
	unsub func()
}

// Unsubscribe removes the observer. It is safe to call more than once and
// safe to call from inside the observer itself while a dispatch is running.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.unsub)
}

type entry[T any] struct {
	fn Observer[T]
	// closed is atomic: Next reads it outside the Subject lock while a
	// concurrent Unsubscribe (a DelayError timer commit may dispatch from
	// its own goroutine) writes it.
	closed atomic.Bool
}

// Subject is a many-observer channel. Next dispatches to a snapshot of the
// observer list taken at the start of the call, so observers added or
// removed mid-dispatch neither receive the in-flight value nor are skipped.
type Subject[T any] struct {
	mu  sync.Mutex
	obs []*entry[T]
}

// Subscribe registers an observer and returns its Subscription.
func (s *Subject[T]) Subscribe(fn Observer[T]) *Subscription {
	e := &entry[T]{fn: fn}
	s.mu.Lock()
	s.obs = append(s.obs, e)
	s.mu.Unlock()
	return &Subscription{unsub: func() {
		s.mu.Lock()
		e.closed.Store(true)
		s.compact()
		s.mu.Unlock()
	}}
}

// compact drops closed entries. Callers hold s.mu.
func (s *Subject[T]) compact() {
	live := s.obs[:0]
	for _, e := range s.obs {
		if !e.closed.Load() {
			live = append(live, e)
		}
	}
	s.obs = live
}

// Next publishes v to every observer subscribed at the time of the call.
func (s *Subject[T]) Next(v T) {
	s.mu.Lock()
	snap := make([]*entry[T], len(s.obs))
	copy(snap, s.obs)
	s.mu.Unlock()
	for _, e := range snap {
		if e.closed.Load() {
			continue
		}
		e.fn(v)
	}
}

// Len reports the number of live observers. The bus skips building
// snapshots for channels nobody listens to.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.obs)
}

// Wrap builds a Subscription around an arbitrary teardown func, so callers
// can chain bookkeeping onto an inner subscription's release.
func Wrap(unsub func()) *Subscription {
	return &Subscription{unsub: unsub}
}

// Close detaches every observer.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	for _, e := range s.obs {
		e.closed.Store(true)
	}
	s.obs = nil
	s.mu.Unlock()
}
