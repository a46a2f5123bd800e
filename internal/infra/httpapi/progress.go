package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/progress"
	"go.uber.org/zap"
)

const (
	clientQueue  = 64
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// subscribe relays the session's events into a client queue. A client that
// falls behind loses progress updates but still gets the terminal event.
func (s *Server) subscribe(sessionID string) (*progress.Queue, func()) {
	q := progress.NewQueue(clientQueue)
	tok := s.events.Subscribe(sessionID, func(ev entity.Event) { q.Push(ev) })
	return q, func() {
		s.events.Unsubscribe(tok)
		q.Close()
	}
}

// handleWebSocket streams {"type", "sessionId", "data"} frames until the
// session ends or the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := s.subscribe(sessionID)
	defer unsubscribe()

	// The reader only notices the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.cfg.KeepAlive)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-events.Ready():
			for {
				ev, ok := events.TryPop()
				if !ok {
					break
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					s.logger.Debug("websocket write failed", zap.String("session_id", sessionID), zap.Error(err))
					return
				}
				if ev.Terminal() {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(ev.Type)),
						time.Now().Add(writeTimeout))
					return
				}
			}
		}
	}
}

type sseCompletion struct {
	Completed   bool   `json:"completed"`
	Zip         string `json:"zip"`
	DownloadURL string `json:"downloadUrl"`
	TextureName string `json:"textureName"`
	Namespace   string `json:"namespace"`
}

type sseError struct {
	Error string `json:"error"`
}

// handleSSE streams the session's events as "data: <json>" frames and ends
// the stream after the terminal event.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	events, unsubscribe := s.subscribe(sessionID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(s.cfg.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-events.Ready():
			for {
				ev, ok := events.TryPop()
				if !ok {
					break
				}
				data, err := json.Marshal(ssePayload(ev))
				if err != nil {
					s.logger.Error("failed to encode sse event", zap.Error(err))
					continue
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
					return
				}
				flusher.Flush()
				if ev.Terminal() {
					return
				}
			}
		}
	}
}

func ssePayload(ev entity.Event) any {
	switch ev.Type {
	case entity.EventComplete:
		return sseCompletion{
			Completed:   true,
			Zip:         "/zips/" + ev.Completion.Namespace + ".zip",
			DownloadURL: ev.Completion.DownloadURL,
			TextureName: ev.Completion.TextureName,
			Namespace:   ev.Completion.Namespace,
		}
	case entity.EventError:
		return sseError{Error: ev.Failure.Message}
	default:
		return ev.Progress
	}
}
