package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "reservation.events"

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type message struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	ReservationID int       `json:"reservationId"`
	ShowingID     int       `json:"showingId"`
	UserID        int       `json:"userId"`
	Status        string    `json:"status"`
	Amount        string    `json:"amount"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// AMQPPublisher writes events as persistent JSON messages to a durable queue
// on the default exchange.
type AMQPPublisher struct {
	mu    sync.Mutex
	ch    Channel
	queue string
	conn  *amqp.Connection
}

// NewAMQPPublisher declares queue on ch and returns a publisher bound to it.
func NewAMQPPublisher(ch Channel, queue string) (*AMQPPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	return &AMQPPublisher{ch: ch, queue: queue}, nil
}

// DialAMQP connects to the broker at url and opens the publishing channel.
func DialAMQP(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open channel: %w", err), conn.Close())
	}

	p, err := NewAMQPPublisher(ch, queue)
	if err != nil {
		return nil, errors.Join(err, ch.Close(), conn.Close())
	}
	p.conn = conn

	return p, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	id := uuid.NewString()

	body, err := json.Marshal(message{
		ID:            id,
		Type:          string(event.Type),
		ReservationID: event.ReservationID,
		ShowingID:     event.ShowingID,
		UserID:        event.UserID,
		Status:        string(event.Status),
		Amount:        event.Amount,
		OccurredAt:    event.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    event.OccurredAt.UTC(),
		Type:         string(event.Type),
		Body:         body,
	}

	// amqp channels must not be shared between concurrent publishers.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}

	return err
}
