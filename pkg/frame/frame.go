// Package frame coalesces work onto animation-frame ticks.
//
// Callers request a frame whenever something changes; however many requests
// arrive before the next tick, each registered callback runs once when the
// frame is flushed. The queue is driven by whoever owns the event loop: a
// bubbletea tick message in the terminal UI, or an explicit Flush in batch
// mode and tests.
package frame

import (
	"sync"
	"time"
)

// Interval is the nominal frame period.
const Interval = 16 * time.Millisecond

// Queue holds callbacks waiting for the next frame.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	ids     map[any]bool
	frames  int
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{ids: make(map[any]bool)}
}

// Request schedules fn for the next frame. Requests sharing the same id
// before a flush collapse into the first one. It reports whether fn was
// queued.
func (q *Queue) Request(id any, fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ids[id] {
		return false
	}
	q.ids[id] = true
	q.pending = append(q.pending, fn)
	return true
}

// Pending reports whether a flush would run anything.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) > 0
}

// Flush runs every queued callback once, in request order. Callbacks that
// request new frames are queued for the following flush. It returns how many
// callbacks ran.
func (q *Queue) Flush() int {
	q.mu.Lock()
	run := q.pending
	q.pending = nil
	q.ids = make(map[any]bool)
	if len(run) > 0 {
		q.frames++
	}
	q.mu.Unlock()

	for _, fn := range run {
		fn()
	}
	return len(run)
}

// Frames returns how many non-empty flushes have happened.
func (q *Queue) Frames() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.frames
}
