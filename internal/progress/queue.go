package progress

import (
	"sync"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
)

// Queue is a bounded FIFO of events whose producer never blocks. When it is
// full the oldest progress update is evicted to make room. Terminal events
// are never evicted or refused, so a queue holding only terminal events may
// grow past its limit.
type Queue struct {
	mu     sync.Mutex
	events []entity.Event
	limit  int
	closed bool
	ready  chan struct{}
}

func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = 1
	}
	return &Queue{
		events: make([]entity.Event, 0, limit),
		limit:  limit,
		ready:  make(chan struct{}, 1),
	}
}

// Push appends ev and reports whether a progress update was lost to make
// room, either an evicted one or ev itself. Pushing to a closed queue is a
// no-op.
func (q *Queue) Push(ev entity.Event) (lost bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	if len(q.events) >= q.limit {
		victim := -1
		for i := range q.events {
			if !q.events[i].Terminal() {
				victim = i
				break
			}
		}
		switch {
		case victim >= 0:
			q.events = append(q.events[:victim], q.events[victim+1:]...)
			lost = true
		case !ev.Terminal():
			return true
		}
	}

	q.events = append(q.events, ev)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return lost
}

// Ready is signalled after a push and closed by Close.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// TryPop removes the oldest event without waiting.
func (q *Queue) TryPop() (entity.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return entity.Event{}, false
	}
	ev := q.events[0]
	q.events[0] = entity.Event{}
	q.events = q.events[1:]
	return ev, true
}

// Next waits for the oldest event. It returns false once the queue is closed
// and empty.
func (q *Queue) Next() (entity.Event, bool) {
	for {
		if ev, ok := q.TryPop(); ok {
			return ev, true
		}
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			// Drain anything pushed between the pop and the check.
			return q.TryPop()
		}
		<-q.ready
	}
}

// Close stops accepting events. Queued events can still be taken.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ready)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
