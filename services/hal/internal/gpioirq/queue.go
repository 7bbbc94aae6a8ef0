// services/hal/internal/gpioirq/queue.go
package gpioirq

import (
	"sync"
	"sync/atomic"
)

// Queue carries zero-payload events from an IRQ handler to one consumer.
//
// It is a counting queue: Post increments a pending count and pokes a
// one-slot wake channel, so the ISR path never blocks and no event is ever
// dropped or merged. The consumer selects on Ready and calls Take once per
// wake-up; Take re-arms the wake channel while events remain.
type Queue struct {
	name string

	mu      sync.Mutex
	pending uint64
	ready   chan struct{}

	posted atomic.Uint64
	taken  atomic.Uint64
}

func NewQueue(name string) *Queue {
	return &Queue{name: name, ready: make(chan struct{}, 1)}
}

func (q *Queue) Name() string { return q.name }

// Post records one event. Safe to call from an IRQ handler.
func (q *Queue) Post() {
	q.mu.Lock()
	q.pending++
	q.mu.Unlock()
	q.posted.Add(1)
	q.wake()
}

// Ready is signalled while at least one event is pending.
func (q *Queue) Ready() <-chan struct{} { return q.ready }

// Take consumes one pending event. It reports false when the queue was
// empty (a stale wake-up).
func (q *Queue) Take() bool {
	q.mu.Lock()
	if q.pending == 0 {
		q.mu.Unlock()
		return false
	}
	q.pending--
	more := q.pending > 0
	q.mu.Unlock()
	q.taken.Add(1)
	if more {
		q.wake()
	}
	return true
}

// Len is the number of events posted but not yet taken.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.pending)
}

func (q *Queue) Posted() uint64 { return q.posted.Load() }
func (q *Queue) Taken() uint64  { return q.taken.Load() }

func (q *Queue) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
		// already signalled
	}
}
