package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blog_service/internal/observability"
	"blog_service/internal/post"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// EventPublisher sends post events to a durable queue, one channel per publish.
type EventPublisher struct {
	open    func() (Channel, error)
	queue   string
	metrics *observability.Metrics
}

func NewEventPublisher(conn *amqp.Connection, metrics *observability.Metrics) *EventPublisher {
	return &EventPublisher{
		open: func() (Channel, error) {
			return CreateChannel(conn)
		},
		queue:   PostEventsQueue,
		metrics: metrics,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, event post.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	ch, err := p.open()
	if err != nil {
		return err
	}
	defer ch.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		"",      // exchange
		p.queue, // routing key (queue name)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			Body:         body,
			Headers:      amqp.Table{RetryHeader: int32(0)},
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}

	p.metrics.RecordPublished(p.queue, string(event.Type))
	return nil
}
