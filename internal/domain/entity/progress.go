package entity

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventProgress EventType = "progress-update"
	EventComplete EventType = "download-ready"
	EventError    EventType = "error"
)

// ProgressEvent is one discrete pipeline status update.
type ProgressEvent struct {
	Step       int    `json:"step"`
	Percent    int    `json:"progress"`
	Message    string `json:"message"`
	ETASeconds *int   `json:"timeLeft"`
}

// CompletionEvent tells the client where to fetch the finished pack.
type CompletionEvent struct {
	DownloadURL string `json:"downloadUrl"`
	TextureName string `json:"textureName"`
	Namespace   string `json:"namespace"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

// Event is the envelope carried by the progress bus. Exactly one of the
// payload fields is set, matching Type.
type Event struct {
	SessionID string
	Type      EventType
	Time      time.Time

	Progress   *ProgressEvent
	Completion *CompletionEvent
	Failure    *ErrorEvent
}

// Terminal reports whether e ends its session.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// Payload returns the wire payload for e.
func (e Event) Payload() any {
	switch e.Type {
	case EventProgress:
		return e.Progress
	case EventComplete:
		return e.Completion
	default:
		return e.Failure
	}
}

// MarshalJSON encodes e as {"type": ..., "data": ...}.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      EventType `json:"type"`
		SessionID string    `json:"sessionId"`
		Data      any       `json:"data"`
	}{e.Type, e.SessionID, e.Payload()})
}
