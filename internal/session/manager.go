package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog_service/internal/auth"

	"github.com/google/uuid"
)

// Manager ties the signed cookie to the server-side session record.
type Manager struct {
	store  Store
	secret string
	ttl    time.Duration
}

func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		secret: secret,
		ttl:    ttl,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Start opens a session for userID and returns the signed cookie value.
func (m *Manager) Start(ctx context.Context, userID int) (string, *Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:        id.String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Create(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	token, err := auth.IssueSessionToken(sess.ID, userID, m.ttl, m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, sess.ID)
		return "", nil, fmt.Errorf("sign session: %w", err)
	}

	return token, sess, nil
}

// Resolve verifies a cookie value and returns the live session behind it.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := auth.ParseSessionToken(token, m.secret)
	if err != nil {
		return nil, err
	}

	sess, err := m.store.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}

	if sess.UserID != claims.UserID {
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

// End deletes the session behind token. Unknown, expired or forged tokens are a no-op.
func (m *Manager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := auth.ParseSessionToken(token, m.secret)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			return nil
		}
		return err
	}

	return m.store.Delete(ctx, claims.SessionID)
}
