// Package stream fans portfolio updates out to live subscribers.
package stream

import (
	"sync"
)

// Hub broadcasts values to every subscriber. Each subscriber has a small
// buffer; when it is full the oldest pending value is dropped so a slow
// client always ends up with the latest state and never blocks Broadcast.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[chan T]struct{}
	buffer int
	closed bool
}

// NewHub creates a Hub with the given per-subscriber buffer (minimum 1).
func NewHub[T any](buffer int) *Hub[T] {
	return &Hub[T]{
		subs:   make(map[chan T]struct{}),
		buffer: max(buffer, 1),
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Broadcast sends v to every subscriber without blocking.
func (h *Hub[T]) Broadcast(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		for {
			select {
			case ch <- v:
			default:
				// full: drop the oldest value and retry
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close unregisters every subscriber and closes their channels.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	h.closed = true
}
