package progress

import (
	"sync"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
)

// Reporter emits the events of one session. Step and percent never
// decrease, nothing but a terminal event follows 100%, and at most one
// terminal event is emitted.
type Reporter struct {
	pub       port.ProgressPublisher
	sessionID string
	now       func() time.Time

	mu      sync.Mutex
	step    int
	percent int
	done    bool
}

func NewReporter(pub port.ProgressPublisher, sessionID string) *Reporter {
	return &Reporter{pub: pub, sessionID: sessionID, now: time.Now}
}

func (r *Reporter) SessionID() string {
	return r.sessionID
}

// Progress emits a progress update. Values below the last emitted ones are
// raised to them.
func (r *Reporter) Progress(step, percent int, message string, eta *int) {
	r.mu.Lock()
	if r.done || r.percent == 100 {
		r.mu.Unlock()
		return
	}
	percent = min(max(percent, 0), 100)
	r.step = max(r.step, step)
	r.percent = max(r.percent, percent)
	ev := entity.Event{
		SessionID: r.sessionID,
		Type:      entity.EventProgress,
		Time:      r.now(),
		Progress: &entity.ProgressEvent{
			Step:       r.step,
			Percent:    r.percent,
			Message:    message,
			ETASeconds: eta,
		},
	}
	r.mu.Unlock()

	r.pub.Publish(ev)
}

// Complete emits the completion event. It reports false if the session had
// already ended.
func (r *Reporter) Complete(c entity.CompletionEvent) bool {
	return r.terminal(entity.Event{Type: entity.EventComplete, Completion: &c})
}

// Fail emits the error event. It reports false if the session had already
// ended.
func (r *Reporter) Fail(message string) bool {
	return r.terminal(entity.Event{Type: entity.EventError, Failure: &entity.ErrorEvent{Message: message}})
}

func (r *Reporter) terminal(ev entity.Event) bool {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return false
	}
	r.done = true
	r.mu.Unlock()

	ev.SessionID = r.sessionID
	ev.Time = r.now()
	r.pub.Publish(ev)
	return true
}

// Done reports whether a terminal event was emitted.
func (r *Reporter) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// ETA returns a pointer for ProgressEvent.ETASeconds.
func ETA(seconds int) *int {
	return &seconds
}
