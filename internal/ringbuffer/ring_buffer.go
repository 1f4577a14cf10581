// Package ringbuffer keeps the most recent entries of an unbounded stream.
package ringbuffer

import "sync"

// RingBuffer is a thread-safe ring buffer
type RingBuffer[T any] struct {
	entries  []T
	capacity uint64
	written  uint64
	mu       sync.RWMutex
}

// New creates a ring buffer holding at most capacity entries
func New[T any](capacity uint64) *RingBuffer[T] {
	if capacity == 0 {
		panic("capacity must be greater than 0")
	}
	return &RingBuffer[T]{
		entries:  make([]T, capacity),
		capacity: capacity,
	}
}

// Add appends entry, overwriting the oldest one when full
func (rb *RingBuffer[T]) Add(entry T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.written%rb.capacity] = entry
	rb.written++
}

// Last returns up to n of the most recent entries, oldest first
func (rb *RingBuffer[T]) Last(n uint64) []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	count := min(n, rb.len())
	result := make([]T, count)
	start := rb.written - count
	for i := range count {
		result[i] = rb.entries[(start+i)%rb.capacity]
	}
	return result
}

// All returns every retained entry, oldest first
func (rb *RingBuffer[T]) All() []T {
	return rb.Last(rb.capacity)
}

// Len returns the number of retained entries
func (rb *RingBuffer[T]) Len() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.len()
}

func (rb *RingBuffer[T]) len() uint64 {
	return min(rb.written, rb.capacity)
}

// Dropped returns how many entries were overwritten
func (rb *RingBuffer[T]) Dropped() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.written - rb.len()
}

// Capacity returns the maximum number of retained entries
func (rb *RingBuffer[T]) Capacity() uint64 {
	return rb.capacity
}
