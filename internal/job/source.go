// Package job supplies request descriptors to load workers.
package job

// maxQueued caps the pre-populated queue regardless of worker count.
const maxQueued = 1000

// Descriptor describes a single request. It is built once and only read afterwards;
// callers must not mutate Headers or Body.
type Descriptor struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Source hands out descriptors to workers without ever blocking.
// It is safe for concurrent use.
type Source struct {
	queue    chan Descriptor
	fallback Descriptor
}

// NewSource creates a source backed by a bounded queue of min(1000, threads*10) slots,
// pre-populated with copies of fallback.
func NewSource(fallback Descriptor, threads int) *Source {
	size := Capacity(threads)
	s := &Source{
		queue:    make(chan Descriptor, size),
		fallback: fallback,
	}
	for i := 0; i < size; i++ {
		s.queue <- fallback
	}
	return s
}

// Capacity returns the queue size used for the given worker count.
func Capacity(threads int) int {
	if threads <= 0 {
		threads = 1
	}
	if threads > maxQueued/10 {
		return maxQueued
	}
	return threads * 10
}

// Next pops a queued descriptor, or returns the fallback when the queue is empty.
func (s *Source) Next() Descriptor {
	select {
	case d := <-s.queue:
		return d
	default:
		return s.fallback
	}
}

// Offer enqueues d if there is room and reports whether it was accepted.
func (s *Source) Offer(d Descriptor) bool {
	select {
	case s.queue <- d:
		return true
	default:
		return false
	}
}

// Len reports the number of queued descriptors.
func (s *Source) Len() int {
	return len(s.queue)
}

// Cap reports the queue capacity.
func (s *Source) Cap() int {
	return cap(s.queue)
}
