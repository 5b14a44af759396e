package post

import (
	"context"
	"time"

	"blog_service/internal/db"

	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventCreated EventType = "post.created"
	EventUpdated EventType = "post.updated"
	EventDeleted EventType = "post.deleted"
)

// Event describes a committed change to a post.
type Event struct {
	Type       EventType `json:"type"`
	PostID     int       `json:"post_id"`
	AuthorID   int       `json:"author_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(eventType EventType, p *Post) Event {
	return Event{
		Type:       eventType,
		PostID:     p.ID,
		AuthorID:   p.AuthorID,
		Title:      p.Title,
		OccurredAt: time.Now().UTC(),
	}
}

// EventPublisher delivers events after the write that caused them has committed.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

// DiscardEvents is the publisher used when no broker is configured.
var DiscardEvents EventPublisher = nopPublisher{}

// RecordedEvent is a row of the post_events audit table.
type RecordedEvent struct {
	ID int
	Event
	RecordedAt time.Time
}

type EventRepository struct{}

type EventRepositoryInterface interface {
	Record(ctx context.Context, q db.Querier, event Event) (int, error)
	ListByPost(ctx context.Context, q db.Querier, postID int) ([]*RecordedEvent, error)
}

func NewEventRepository() EventRepositoryInterface {
	return &EventRepository{}
}

// Record appends event to the audit table
func (r *EventRepository) Record(ctx context.Context, q db.Querier, event Event) (int, error) {
	query := `
		INSERT INTO post_events (
			event_type, post_id, author_id, title, occurred_at, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int
	err := q.QueryRowContext(ctx, query,
		string(event.Type),
		event.PostID,
		event.AuthorID,
		event.Title,
		event.OccurredAt.UTC(),
		time.Now().UTC(),
	).Scan(&id)

	if err != nil {
		logrus.WithError(err).WithField("post_id", event.PostID).Error("Failed to record post event")
		return 0, err
	}

	return id, nil
}

// ListByPost returns the audit trail of one post, oldest first
func (r *EventRepository) ListByPost(ctx context.Context, q db.Querier, postID int) ([]*RecordedEvent, error) {
	query := `
		SELECT id, event_type, post_id, author_id, title, occurred_at, recorded_at
		FROM post_events
		WHERE post_id = $1
		ORDER BY id ASC
	`

	rows, err := q.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*RecordedEvent
	for rows.Next() {
		e := &RecordedEvent{}
		var eventType string
		if err := rows.Scan(&e.ID, &eventType, &e.PostID, &e.AuthorID, &e.Title, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Type = EventType(eventType)
		events = append(events, e)
	}

	return events, rows.Err()
}
