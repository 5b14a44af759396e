package worker

import (
	"context"
	"database/sql"

	"blog_service/internal/observability"
	"blog_service/internal/post"
	"blog_service/internal/queue"
	"blog_service/internal/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// MaxRetries is how often a message is requeued before it is dropped.
const MaxRetries = 3

// EventRecorder appends consumed post events to the audit table.
type EventRecorder struct {
	db      *sql.DB
	repo    post.EventRepositoryInterface
	metrics *observability.Metrics
}

func NewEventRecorder(db *sql.DB, repo post.EventRepositoryInterface, metrics *observability.Metrics) *EventRecorder {
	return &EventRecorder{
		db:      db,
		repo:    repo,
		metrics: metrics,
	}
}

// Handle processes one delivery and always acks or nacks it.
func (r *EventRecorder) Handle(ctx context.Context, ch Republisher, msg amqp.Delivery, workerID int) {
	event, err := decodeEvent(msg.Body)
	if err != nil {
		logrus.WithError(err).Errorf("Worker %d dropping message", workerID)
		r.metrics.RecordEventFailure("decode")
		r.metrics.RecordConsumed(queue.PostEventsQueue, "failed")
		_ = msg.Nack(false, false)
		return
	}

	retries := retryCount(msg.Headers)

	logrus.WithFields(logrus.Fields{
		"worker":  workerID,
		"event":   event.Type,
		"post_id": event.PostID,
		"retry":   retries,
	}).Info("Recording post event")

	err = utils.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := r.repo.Record(ctx, tx, event)
		return err
	})
	if err == nil {
		r.metrics.RecordConsumed(queue.PostEventsQueue, "success")
		_ = msg.Ack(false)
		return
	}

	logrus.WithError(err).Error("Failed to record post event")

	if retries >= MaxRetries {
		r.metrics.RecordEventFailure("max_retries")
		r.metrics.RecordConsumed(queue.PostEventsQueue, "failed")
		_ = msg.Nack(false, false)
		return
	}

	logrus.Infof("Worker %d: requeuing event (retry %d/%d)", workerID, retries+1, MaxRetries)

	if err := republishWithRetry(ch, &msg, retries+1); err != nil {
		logrus.WithError(err).Error("Failed to republish message")
		r.metrics.RecordEventFailure("republish")
		r.metrics.RecordConsumed(queue.PostEventsQueue, "failed")
		_ = msg.Nack(false, false)
		return
	}

	r.metrics.RecordConsumed(queue.PostEventsQueue, "retried")
	_ = msg.Ack(false)
}

// StartWorker consumes the post events queue until ctx is cancelled or the
// channel closes.
func StartWorker(ctx context.Context, conn *amqp.Connection, recorder *EventRecorder, id int) {
	ch, err := queue.CreateChannel(conn)
	if err != nil {
		logrus.Fatalf("Worker %d failed to open channel: %v", id, err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		logrus.Fatalf("Worker %d failed to set QoS: %v", id, err)
	}

	msgs, err := ch.Consume(
		queue.PostEventsQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logrus.Fatalf("Worker %d failed to start consuming messages: %v", id, err)
		return
	}

	logrus.Infof("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			logrus.Infof("Worker %d stopping", id)
			return
		case msg, ok := <-msgs:
			if !ok {
				logrus.Warnf("Worker %d: delivery channel closed", id)
				return
			}
			recorder.Handle(ctx, ch, msg, id)
		}
	}
}
