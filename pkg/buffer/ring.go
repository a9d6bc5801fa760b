package buffer

import (
	"sync"

	"github.com/UlloLabs/LSL2Logs/errors"
)

// ring is a thread-safe ring buffer with configurable overflow policies.
type ring[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	stats    statistics
	metrics  *ringMetrics // optional Prometheus export
	opts     *options[T]
	closed   bool
}

func newRing[T any](capacity int, opts *options[T]) (*ring[T], error) {
	if capacity <= 0 {
		capacity = 1
	}

	var metrics *ringMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newRingMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "buffer", "newRing", "metrics registration")
		}
	}

	return &ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		metrics:  metrics,
		opts:     opts,
	}, nil
}

// Write adds an item to the buffer according to the overflow policy.
func (r *ring[T]) Write(item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Buffer", "Write", "buffer closed")
	}

	if r.size == r.capacity {
		switch r.opts.overflowPolicy {
		case DropOldest:
			dropped := r.items[r.tail]
			r.tail = (r.tail + 1) % r.capacity
			r.size--

			r.stats.overflow()
			if r.metrics != nil {
				r.metrics.recordDrop()
			}
			if r.opts.dropCallback != nil {
				// Run the callback outside the lock to avoid deadlock
				defer r.opts.dropCallback(dropped)
			}

		case DropNewest:
			r.stats.overflow()
			if r.metrics != nil {
				r.metrics.recordDrop()
			}
			if r.opts.dropCallback != nil {
				defer r.opts.dropCallback(item)
			}
			return nil
		}
	}

	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity
	r.size++

	r.stats.write(int64(r.size))
	if r.metrics != nil {
		r.metrics.recordWrite(r.size, r.capacity)
	}

	return nil
}

// Read retrieves and removes one item from the buffer.
func (r *ring[T]) Read() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T

	if r.size == 0 {
		return zero, false
	}

	item := r.items[r.tail]
	r.items[r.tail] = zero // release for GC
	r.tail = (r.tail + 1) % r.capacity
	r.size--

	r.stats.read(int64(r.size))
	if r.metrics != nil {
		r.metrics.recordRead(r.size, r.capacity)
	}

	return item, true
}

// ReadBatch retrieves and removes up to max items from the buffer.
func (r *ring[T]) ReadBatch(max int) []T {
	if max <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		return nil
	}

	readCount := max
	if readCount > r.size {
		readCount = r.size
	}

	result := make([]T, readCount)
	var zero T

	for i := 0; i < readCount; i++ {
		result[i] = r.items[r.tail]
		r.items[r.tail] = zero
		r.tail = (r.tail + 1) % r.capacity
		r.size--
		r.stats.read(int64(r.size))
	}

	if r.metrics != nil {
		r.metrics.updateSize(r.size, r.capacity)
	}

	return result
}

// Peek retrieves one item without removing it from the buffer.
func (r *ring[T]) Peek() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T

	if r.size == 0 {
		return zero, false
	}

	return r.items[r.tail], true
}

// Size returns the current number of items in the buffer.
func (r *ring[T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Capacity returns the maximum number of items the buffer can hold.
func (r *ring[T]) Capacity() int {
	return r.capacity // immutable, no lock needed
}

// IsEmpty returns true if the buffer contains no items.
func (r *ring[T]) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size == 0
}

// Clear removes all items from the buffer.
func (r *ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T

	if r.opts.dropCallback != nil {
		dropped := make([]T, r.size)
		for i := 0; i < r.size; i++ {
			dropped[i] = r.items[(r.tail+i)%r.capacity]
		}
		defer func() {
			for _, item := range dropped {
				r.opts.dropCallback(item)
			}
		}()
	}

	for i := 0; i < r.capacity; i++ {
		r.items[i] = zero
	}

	r.head = 0
	r.tail = 0
	r.size = 0

	if r.metrics != nil {
		r.metrics.updateSize(0, r.capacity)
	}
}

// Stats returns a snapshot of the buffer statistics.
func (r *ring[T]) Stats() Statistics {
	return r.stats.snapshot()
}

// Close shuts down the buffer.
func (r *ring[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	return nil
}
