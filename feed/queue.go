// Package feed connects event producers to the render loop: an unbounded
// queue, the NDJSON stream reader, the orchestrator subprocess and the
// synthetic demo generator.
package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/joshyorko/swarmdash/dashboard"
)

// Queue is an unbounded FIFO between producer goroutines and the single
// consumer. Close marks end of stream; it is observed by the consumer only
// after every earlier event has been drained.
type Queue struct {
	mu     sync.Mutex
	events []dashboard.Event
	closed bool
	pushed int
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an event. Pushes after Close are dropped.
func (q *Queue) Push(event dashboard.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.events = append(q.events, event)
	q.pushed++
}

// Close enqueues the end-of-stream sentinel. Repeated calls are harmless.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Drain removes up to limit events in arrival order. ended reports that the
// sentinel was reached: the stream is closed and nothing is left behind.
func (q *Queue) Drain(limit int) (batch []dashboard.Event, ended bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	take := min(max(limit, 0), len(q.events))
	if take > 0 {
		batch = make([]dashboard.Event, take)
		copy(batch, q.events[:take])
		clear(q.events[:take])
		q.events = q.events[take:]
	}
	if len(q.events) == 0 {
		q.events = nil
	}
	return batch, q.closed && len(q.events) == 0
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Pushed returns how many events were accepted in total.
func (q *Queue) Pushed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed
}

// ErrorEvent is the synthetic event a producer emits for a fatal failure.
func ErrorEvent(err error, now time.Time) dashboard.Event {
	return dashboard.Event{
		Timestamp: now.UnixMilli(),
		Level:     "error",
		Message:   fmt.Sprintf("Process error: %v", err),
	}
}
