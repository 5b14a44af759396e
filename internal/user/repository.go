package user

import (
	"context"
	"database/sql"
	"errors"

	"blog_service/internal/db"

	"github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct{}

type UserRepositoryInterface interface {
	Create(ctx context.Context, tx *sql.Tx, user *User) (int, error)
	GetByID(ctx context.Context, q db.Querier, id int) (*User, error)
	GetByEmail(ctx context.Context, q db.Querier, email string) (*User, error)
	GetByUsername(ctx context.Context, q db.Querier, username string) (*User, error)
}

func NewUserRepository() UserRepositoryInterface {
	return &UserRepository{}
}

const selectUser = `
	SELECT id, username, email, password, is_admin
	FROM users
`

// Create inserts user and returns the new id. Unique violations are returned
// unwrapped so the caller can inspect them.
func (r *UserRepository) Create(ctx context.Context, tx *sql.Tx, user *User) (int, error) {
	query := `
		INSERT INTO users (
			username, email, password, is_admin
		)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int
	err := tx.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.Password,
		user.IsAdmin,
	).Scan(&id)

	if err != nil {
		if !db.IsUniqueViolation(err) {
			logrus.WithError(err).Error("Failed to create user")
		}
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  id,
		"username": user.Username,
	}).Info("User created successfully")

	return id, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, q db.Querier, id int) (*User, error) {
	return r.getOne(ctx, q, selectUser+`WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, q db.Querier, email string) (*User, error) {
	return r.getOne(ctx, q, selectUser+`WHERE email = $1`, email)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, q db.Querier, username string) (*User, error) {
	return r.getOne(ctx, q, selectUser+`WHERE username = $1`, username)
}

func (r *UserRepository) getOne(ctx context.Context, q db.Querier, query string, arg any) (*User, error) {
	user := &User{}
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.IsAdmin,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).Error("Failed to get user")
		return nil, err
	}

	return user, nil
}
