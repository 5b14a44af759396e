package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// SQLStore keeps sessions in the relational database.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, sess *Session) error {
	query := `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.db.ExecContext(ctx, query, sess.ID, sess.UserID, sess.CreatedAt, sess.ExpiresAt); err != nil {
		logrus.WithError(err).Error("Failed to create session")
		return err
	}

	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, user_id, created_at, expires_at
		FROM sessions
		WHERE id = $1
	`

	sess := &Session{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.CreatedAt,
		&sess.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		logrus.WithError(err).Error("Failed to get session")
		return nil, err
	}

	if sess.Expired(time.Now()) {
		if err := s.Delete(ctx, id); err != nil {
			logrus.WithError(err).Warn("Failed to delete expired session")
		}
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		logrus.WithError(err).Error("Failed to delete session")
		return err
	}
	return nil
}

// PurgeExpired removes every expired session and returns how many were dropped.
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
