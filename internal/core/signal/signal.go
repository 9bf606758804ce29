// Package signal provides the synchronous publish/subscribe primitive the
// runtime uses for entity add/remove notifications. A Signal delivers to its
// handlers strictly in subscription order, on the caller's goroutine.
package signal

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Handler consumes one emitted value. An error returned by a handler is
// surfaced to the emitter; it does not stop delivery to later handlers.
type Handler[T any] func(T) error

type subscription[T any] struct {
	id      string
	handler Handler[T]
}

// Signal is an ordered, synchronous notification channel for values of type T.
// The zero value is not usable; construct with New.
type Signal[T any] struct {
	subs []subscription[T]

	// Meta-signals, created lazily on first access. They fire with the new
	// subscriber count whenever this signal gains or loses a subscriber.
	subscribed   *Signal[int]
	unsubscribed *Signal[int]
}

// New creates an empty Signal.
func New[T any]() *Signal[T] {
	return &Signal[T]{}
}

// Subscribe registers a handler and returns its cancel function. Cancelling
// twice is a no-op. Handlers are invoked in subscription order.
func (s *Signal[T]) Subscribe(h Handler[T]) (unsubscribe func()) {
	id := uuid.NewString()
	s.subs = append(s.subs, subscription[T]{id: id, handler: h})
	if s.subscribed != nil {
		_ = s.subscribed.Emit(len(s.subs))
	}
	return func() {
		s.remove(id)
	}
}

func (s *Signal[T]) remove(id string) {
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			if s.unsubscribed != nil {
				_ = s.unsubscribed.Emit(len(s.subs))
			}
			return
		}
	}
}

// Emit delivers v to every handler in subscription order. All handlers run
// even when earlier ones fail; their errors are joined into the result.
func (s *Signal[T]) Emit(v T) error {
	if len(s.subs) == 0 {
		return nil
	}
	// Snapshot so handlers may subscribe/unsubscribe during delivery without
	// affecting this emission.
	subs := make([]subscription[T], len(s.subs))
	copy(subs, s.subs)

	var all error
	for _, sub := range subs {
		if err := sub.handler(v); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

// EmitAsync delivers v to every handler concurrently and resolves the
// returned channel once all of them have settled, with their joined error.
// Runtime internals never use this form; it exists for host-side consumers
// whose handlers are safe to run off the tick goroutine.
func (s *Signal[T]) EmitAsync(v T) <-chan error {
	ch := make(chan error, 1)
	subs := make([]subscription[T], len(s.subs))
	copy(subs, s.subs)

	var g errgroup.Group
	for _, sub := range subs {
		g.Go(func() error {
			return sub.handler(v)
		})
	}
	go func() {
		ch <- g.Wait()
		close(ch)
	}()
	return ch
}

// Clear drops every handler without firing the unsubscribe meta-signal per
// handler; a single notification with count zero is emitted instead.
func (s *Signal[T]) Clear() {
	if len(s.subs) == 0 {
		return
	}
	s.subs = nil
	if s.unsubscribed != nil {
		_ = s.unsubscribed.Emit(0)
	}
}

// Len reports the current number of subscribers.
func (s *Signal[T]) Len() int {
	return len(s.subs)
}

// OnSubscribe returns the meta-signal fired after each new subscription with
// the updated subscriber count. Meta-signals have no meta-signals of their own.
func (s *Signal[T]) OnSubscribe() *Signal[int] {
	if s.subscribed == nil {
		s.subscribed = New[int]()
	}
	return s.subscribed
}

// OnUnsubscribe returns the meta-signal fired after each unsubscription with
// the updated subscriber count.
func (s *Signal[T]) OnUnsubscribe() *Signal[int] {
	if s.unsubscribed == nil {
		s.unsubscribed = New[int]()
	}
	return s.unsubscribed
}
