package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"blog_service/internal/apperr"
	"blog_service/internal/auth"
	"blog_service/internal/db"
	"blog_service/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	MsgFieldsRequired   = "All fields are required!"
	MsgEmailTaken       = "Email already taken. Try another one."
	MsgUsernameTaken    = "Username already taken. Try another one."
	MsgAccountFailed    = "Could not create account. Please try again."
	MsgWrongCredentials = "Wrong email or password"
)

type UserService struct {
	repo UserRepositoryInterface
	db   *sql.DB
}

type UserServiceInterface interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Authenticate(ctx context.Context, input LoginInput) (*User, error)
	GetUserByID(ctx context.Context, id int) (*User, error)
}

func NewUserService(repo UserRepositoryInterface, db *sql.DB) UserServiceInterface {
	return &UserService{
		repo: repo,
		db:   db,
	}
}

// Register validates input, rejects taken emails and usernames, and stores the
// user with a hashed password in a single transaction. The unique constraints in
// the database have the final say when two registrations race.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, s.db, input.Email); err == nil {
		return nil, apperr.Duplicate("email", MsgEmailTaken)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Storage(MsgAccountFailed, err)
	}

	if _, err := s.repo.GetByUsername(ctx, s.db, input.Username); err == nil {
		return nil, apperr.Duplicate("username", MsgUsernameTaken)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Storage(MsgAccountFailed, err)
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperr.Validation("password", "Password must be at most 72 bytes.")
		}
		return nil, apperr.Storage(MsgAccountFailed, err)
	}

	user := &User{
		Username: input.Username,
		Email:    input.Email,
		Password: hashedPassword,
	}

	err = utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		id, err := s.repo.Create(ctx, tx, user)
		if err != nil {
			return err
		}
		user.ID = id
		return nil
	})
	if err != nil {
		user.ID = 0
		if column, ok := db.UniqueViolation(err); ok {
			return nil, duplicateFor(column)
		}
		logrus.WithError(err).WithField("username", input.Username).Error("Failed to register user")
		return nil, apperr.Storage(MsgAccountFailed, err)
	}

	return user, nil
}

// Authenticate fails the same way for an unknown email and a wrong password.
func (s *UserService) Authenticate(ctx context.Context, input LoginInput) (*User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperr.Validation("", MsgFieldsRequired)
	}

	user, err := s.repo.GetByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.InvalidCredentials(MsgWrongCredentials)
		}
		return nil, apperr.Storage("Could not log in. Please try again.", err)
	}

	if !auth.VerifyPassword(input.Password, user.Password) {
		return nil, apperr.InvalidCredentials(MsgWrongCredentials)
	}

	logrus.WithField("user_id", user.ID).Info("User logged in")
	return user, nil
}

// GetUserByID retrieves user by ID
func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	user, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound("User not found.")
		}
		return nil, apperr.Storage("Could not load user.", err)
	}
	return user, nil
}

func validateRegistration(input RegisterInput) error {
	fe := utils.ValidateStruct(input)
	if fe == nil {
		return nil
	}

	switch fe.Tag {
	case "required":
		return apperr.Validation(fe.Field, MsgFieldsRequired)
	case "email":
		return apperr.Validation(fe.Field, "Please enter a valid email address.")
	case "max":
		return apperr.Validation(fe.Field, capitalize(fe.Field)+" must be at most "+fe.Param+" characters.")
	default:
		return apperr.Validation(fe.Field, "Invalid "+fe.Field+".")
	}
}

func duplicateFor(column string) error {
	switch column {
	case "email":
		return apperr.Duplicate("email", MsgEmailTaken)
	case "username":
		return apperr.Duplicate("username", MsgUsernameTaken)
	default:
		return apperr.Duplicate(column, "Username or email already taken.")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
