package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event is one logical lifecycle event, produced exactly once per committed
// transition. The external pusher owns delivery from here.
type Event struct {
	Type      string                 `json:"type"`
	RequestID string                 `json:"request_id"`
	ActorID   string                 `json:"actor_id,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	EmittedAt time.Time              `json:"emitted_at"`
}

const (
	EventHelpProposed    = "help.proposed"
	EventHelpAccepted    = "help.accepted"
	EventHelpRejected    = "help.rejected"
	EventHelpCompleted   = "help.completed"
	EventHelpExpired     = "help.expired"
	EventReputationStale = "reputation.stale"
	EventReviewStale     = "review.stale"
)

// Publisher pushes lifecycle events onto a durable queue.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type amqpPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewAmqpPublisher(uri, queue string) (Publisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &amqpPublisher{
		conn:  conn,
		ch:    ch,
		queue: queue,
	}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, event Event) error {
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (p *amqpPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}
