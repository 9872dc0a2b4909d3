// Package pubsub provides the broadcast channel behind every reactive stream
// in the client: counters, login state, spinner visibility, exchange rates.
// Delivery is synchronous and FIFO in subscription order; subjects that carry
// a current value replay the last published value to late subscribers.
package pubsub

import (
	"sync"
)

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Broadcaster fans one value stream out to any number of subscribers.
type Broadcaster[T any] struct {
	mu      sync.Mutex
	subs    []subscriber[T]
	next    int
	last    T
	hasLast bool
}

func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// NewWith seeds the broadcaster with a current value, so the first subscriber
// sees it immediately. This is the replay-last-value ("current value") form.
func NewWith[T any](initial T) *Broadcaster[T] {
	return &Broadcaster[T]{last: initial, hasLast: true}
}

// Publish records v as the current value and delivers it to every subscriber
// in subscription order before returning.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	b.last = v
	b.hasLast = true
	subs := make([]subscriber[T], len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers fn and returns an unsubscribe func. The consumer owns
// the unsubscribe call and must make it before tearing down, otherwise the
// listener leaks. If a current value exists it is replayed to fn at once.
func (b *Broadcaster[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs = append(b.subs, subscriber[T]{id: id, fn: fn})
	replay, hasLast := b.last, b.hasLast
	b.mu.Unlock()

	if hasLast {
		fn(replay)
	}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Last returns the current value, if one has been published or seeded.
func (b *Broadcaster[T]) Last() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.hasLast
}

// Len reports the number of live subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
