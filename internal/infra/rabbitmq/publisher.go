package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusRoutingPrefix prefixes the event type in status routing keys.
const StatusRoutingPrefix = "betmc.status."

type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx, exchange, key, false, false, msg)
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

type StatusPublisher struct {
	pub *Publisher
}

func NewStatusPublisher(pub *Publisher) *StatusPublisher {
	return &StatusPublisher{pub: pub}
}

func StatusRoutingKey(t entity.EventType) string {
	return StatusRoutingPrefix + string(t)
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg entity.StatusMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	err = sp.pub.publish(ctx, sp.pub.exchange, StatusRoutingKey(msg.Type), amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers: amqp.Table{
			"x-session-id": msg.SessionID,
		},
	})
	if err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	return nil
}

type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	err := dp.pub.publish(ctx, "", dp.queue, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers: amqp.Table{
			"x-dlq-reason": reason,
		},
	})
	if err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}
