package state

import "sync"

const (
	CallLogCapacity   = 50
	ResultLogCapacity = 20
)

// Ring keeps the most recent entries up to its capacity. Appends from
// multiple goroutines are safe; the oldest entry is evicted first.
type Ring[T any] struct {
	mu       sync.Mutex
	capacity int
	items    []T
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		capacity: capacity,
		items:    make([]T, 0, capacity),
	}
}

func (r *Ring[T]) Add(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, item)
	if overflow := len(r.items) - r.capacity; overflow > 0 {
		trimmed := make([]T, r.capacity)
		copy(trimmed, r.items[overflow:])
		r.items = trimmed
	}
}

// Snapshot returns a copy of the entries, oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Ring[T]) Capacity() int {
	return r.capacity
}
