// Package events publishes domain events to RabbitMQ. Publishing is best
// effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Event types emitted by the service.
const (
	TypeScheduleGenerated = "schedule.generated"
	TypeScheduleSwapped   = "schedule.swapped"
)

// Envelope wraps every event body.
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
	Close() error
}

// NopPublisher drops every event. It is used when ENABLE_EVENTS is off.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON envelopes to a durable topic exchange, using the
// event type as routing key.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     io.Closer
	ch       amqpChannel
	exchange string
	logger   *zap.Logger
	now      func() time.Time
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return newAMQPPublisher(conn, ch, exchange, logger), nil
}

func newAMQPPublisher(conn io.Closer, ch amqpChannel, exchange string, logger *zap.Logger) *AMQPPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Publish marshals the payload into an Envelope and publishes it as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	envelope := Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: p.now(),
		Payload:    payload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    envelope.ID,
		Type:         eventType,
		Timestamp:    envelope.OccurredAt,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, eventType, false, false, msg); err != nil {
		p.logger.Warn("publish event failed", zap.String("type", eventType), zap.Error(err))
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.logger.Debug("event published", zap.String("type", eventType), zap.String("event_id", envelope.ID))
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	chErr := p.ch.Close()
	connErr := p.conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}
