package app

import "sync"

const subscriberBuffer = 16

// Broadcaster fans values out to any number of subscribers. Slow subscribers
// lose their oldest pending value rather than blocking the publisher.
type Broadcaster[T any] struct {
	mu          sync.Mutex
	subscribers map[chan T]struct{}
	buffer      int
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return NewBroadcasterWithBuffer[T](subscriberBuffer)
}

func NewBroadcasterWithBuffer[T any](buffer int) *Broadcaster[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster[T]{
		subscribers: make(map[chan T]struct{}),
		buffer:      buffer,
	}
}

// Subscribe returns a channel of published values.
// The caller must invoke the returned cancel function to avoid leaks.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, b.buffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers v to every subscriber.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		offer(ch, v)
	}
}

// Len reports the number of live subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// offer sends without blocking, dropping the oldest queued value when full.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
