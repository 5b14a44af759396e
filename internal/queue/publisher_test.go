package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"blog_service/internal/observability"
	"blog_service/internal/post"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChannel is a mock implementation of Channel
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *MockChannel) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestPublisher(ch Channel, openErr error) (*EventPublisher, *observability.Metrics) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return &EventPublisher{
		open: func() (Channel, error) {
			if openErr != nil {
				return nil, openErr
			}
			return ch, nil
		},
		queue:   PostEventsQueue,
		metrics: metrics,
	}, metrics
}

func TestEventPublisher_Publish(t *testing.T) {
	ch := new(MockChannel)
	publisher, metrics := newTestPublisher(ch, nil)

	event := post.Event{Type: post.EventCreated, PostID: 3, AuthorID: 1, Title: "T", OccurredAt: time.Now().UTC()}

	ch.On("PublishWithContext", mock.Anything, "", PostEventsQueue, false, false, mock.MatchedBy(func(msg amqp.Publishing) bool {
		var decoded post.Event
		if err := json.Unmarshal(msg.Body, &decoded); err != nil {
			return false
		}
		return msg.ContentType == "application/json" &&
			msg.DeliveryMode == amqp.Persistent &&
			msg.Type == "post.created" &&
			msg.Headers[RetryHeader] == int32(0) &&
			decoded.PostID == 3
	})).Return(nil)
	ch.On("Close").Return(nil)

	require.NoError(t, publisher.Publish(context.Background(), event))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.QueueMessagesPublished.WithLabelValues(PostEventsQueue, "post.created")))
	ch.AssertExpectations(t)
}

func TestEventPublisher_PublishFailure(t *testing.T) {
	ch := new(MockChannel)
	publisher, metrics := newTestPublisher(ch, nil)

	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed"))
	ch.On("Close").Return(nil)

	err := publisher.Publish(context.Background(), post.Event{Type: post.EventDeleted, PostID: 1})

	assert.Error(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.QueueMessagesPublished.WithLabelValues(PostEventsQueue, "post.deleted")))
	ch.AssertCalled(t, "Close")
}

func TestEventPublisher_ChannelUnavailable(t *testing.T) {
	publisher, _ := newTestPublisher(nil, errors.New("connection closed"))

	err := publisher.Publish(context.Background(), post.Event{Type: post.EventUpdated, PostID: 1})

	assert.ErrorContains(t, err, "connection closed")
}

func TestEventPublisher_SatisfiesPostPublisher(t *testing.T) {
	var _ post.EventPublisher = (*EventPublisher)(nil)
}
