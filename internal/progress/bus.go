// Package progress fans session events out to any number of live channels.
// Publishing never blocks: each subscriber drains its own bounded queue. A
// full queue sheds its oldest progress update; terminal events always get
// through.
package progress

import (
	"sync"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/metrics"
	"go.uber.org/zap"
)

type Handler func(entity.Event)

// Token identifies a subscription.
type Token uint64

type BusConfig struct {
	QueueSize int
}

type subscriber struct {
	sessionID string // empty for SubscribeAll
	handler   Handler
	queue     *Queue
	done      chan struct{}
}

type Bus struct {
	mu        sync.RWMutex
	subs      map[Token]*subscriber
	next      Token
	closed    bool
	queueSize int
	logger    *zap.Logger
}

func NewBus(logger *zap.Logger, cfg BusConfig) *Bus {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Bus{
		subs:      make(map[Token]*subscriber),
		queueSize: cfg.QueueSize,
		logger:    logger,
	}
}

// Subscribe registers handler for the events of one session.
func (b *Bus) Subscribe(sessionID string, handler Handler) Token {
	return b.add(sessionID, handler)
}

// SubscribeAll registers handler for every session's events.
func (b *Bus) SubscribeAll(handler Handler) Token {
	return b.add("", handler)
}

func (b *Bus) add(sessionID string, handler Handler) Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	tok := b.next
	if b.closed {
		return tok
	}

	s := &subscriber{
		sessionID: sessionID,
		handler:   handler,
		queue:     NewQueue(b.queueSize),
		done:      make(chan struct{}),
	}
	b.subs[tok] = s
	go b.drain(s)
	return tok
}

func (b *Bus) drain(s *subscriber) {
	defer close(s.done)
	for {
		ev, ok := s.queue.Next()
		if !ok {
			return
		}
		b.deliver(s, ev)
	}
}

func (b *Bus) deliver(s *subscriber, ev entity.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("progress handler panicked",
				zap.String("session_id", ev.SessionID),
				zap.Any("panic", r),
			)
		}
	}()
	s.handler(ev)
}

// Unsubscribe removes the subscription. Events already queued are still
// delivered. Unknown tokens are ignored.
func (b *Bus) Unsubscribe(tok Token) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.subs[tok]; ok {
		delete(b.subs, tok)
		s.queue.Close()
	}
}

// Publish hands ev to every matching subscriber without waiting for delivery.
func (b *Bus) Publish(ev entity.Event) {
	metrics.ProgressEventsTotal.WithLabelValues(string(ev.Type)).Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs {
		if s.sessionID != "" && s.sessionID != ev.SessionID {
			continue
		}
		if s.queue.Push(ev) {
			metrics.ProgressDroppedTotal.Inc()
			b.logger.Debug("progress update dropped for slow subscriber",
				zap.String("session_id", ev.SessionID),
				zap.String("type", string(ev.Type)),
			)
		}
	}
}

// Close removes every subscription and waits for queued events to drain.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	pending := make([]*subscriber, 0, len(b.subs))
	for tok, s := range b.subs {
		delete(b.subs, tok)
		s.queue.Close()
		pending = append(pending, s)
	}
	b.mu.Unlock()

	for _, s := range pending {
		<-s.done
	}
}
