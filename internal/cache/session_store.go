package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blog_service/internal/session"

	"github.com/go-redis/redis/v8"
)

// SessionStore keeps sessions in Redis; expiry is delegated to key TTLs.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

type sessionRecord struct {
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}

	data, err := json.Marshal(sessionRecord{
		UserID:    sess.UserID,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, SessionKey(sess.ID), data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	val, err := s.client.Get(ctx, SessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec sessionRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	sess := &session.Session{
		ID:        id,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}
	if sess.Expired(time.Now()) {
		return nil, session.ErrSessionNotFound
	}

	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, SessionKey(id)).Err()
}

// Build cache key for a session
func SessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
