package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blog_service/internal/post"
	"blog_service/internal/queue"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Republisher is the part of *amqp.Channel used to requeue a failed message.
type Republisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

func decodeEvent(body []byte) (post.Event, error) {
	var event post.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return post.Event{}, fmt.Errorf("invalid payload: %w", err)
	}

	switch event.Type {
	case post.EventCreated, post.EventUpdated, post.EventDeleted:
	default:
		return post.Event{}, fmt.Errorf("unknown event type: %q", event.Type)
	}

	if event.PostID <= 0 {
		return post.Event{}, fmt.Errorf("event %s without post id", event.Type)
	}

	return event, nil
}

// retryCount reads the retry header; AMQP tables may decode integers at any width.
func retryCount(headers amqp.Table) int32 {
	if headers == nil {
		return 0
	}
	switch v := headers[queue.RetryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	case int16:
		return int32(v)
	case int8:
		return int32(v)
	default:
		return 0
	}
}

func republishWithRetry(ch Republisher, msg *amqp.Delivery, retryCount int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[queue.RetryHeader] = retryCount

	return ch.PublishWithContext(
		ctx,
		"",             // exchange
		msg.RoutingKey, // routing key (queue name)
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Type:         msg.Type,
			Body:         msg.Body,
			Headers:      headers,
		},
	)
}
