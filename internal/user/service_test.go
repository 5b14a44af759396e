package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"blog_service/internal/apperr"
	"blog_service/internal/auth"
	"blog_service/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, tx *sql.Tx, user *User) (int, error) {
	args := m.Called(ctx, tx, user)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, q db.Querier, id int) (*User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, q db.Querier, email string) (*User, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, q db.Querier, username string) (*User, error) {
	args := m.Called(ctx, q, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func countUsers(t *testing.T, database *sql.DB, column, value string) int {
	t.Helper()
	var n int
	err := database.QueryRow(`SELECT COUNT(*) FROM users WHERE `+column+` = $1`, value).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestRegister_Success(t *testing.T) {
	database := setupTestDB(t)
	service := NewUserService(NewUserRepository(), database)

	user, err := service.Register(context.Background(), RegisterInput{Username: " alice ", Email: "a@x.com", Password: "secret"})

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "secret", user.Password)
	assert.True(t, auth.VerifyPassword("secret", user.Password))

	stored, err := NewUserRepository().GetByEmail(context.Background(), database, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.Equal(t, user.Password, stored.Password)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		field   string
		message string
	}{
		{name: "Missing username", input: RegisterInput{Email: "a@x.com", Password: "p"}, field: "username", message: MsgFieldsRequired},
		{name: "Whitespace email", input: RegisterInput{Username: "a", Email: "   ", Password: "p"}, field: "email", message: MsgFieldsRequired},
		{name: "Missing password", input: RegisterInput{Username: "a", Email: "a@x.com"}, field: "password", message: MsgFieldsRequired},
		{name: "Bad email", input: RegisterInput{Username: "a", Email: "not-an-email", Password: "p"}, field: "email", message: "Please enter a valid email address."},
		{name: "Long username", input: RegisterInput{Username: strings.Repeat("u", 51), Email: "a@x.com", Password: "p"}, field: "username", message: "Username must be at most 50 characters."},
		{name: "Long password", input: RegisterInput{Username: "a", Email: "a@x.com", Password: strings.Repeat("p", 73)}, field: "password", message: "Password must be at most 72 bytes."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := setupTestDB(t)
			service := NewUserService(NewUserRepository(), database)

			_, err := service.Register(context.Background(), tt.input)

			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Field)
			assert.Equal(t, tt.message, appErr.Message)

			var n int
			require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
			assert.Zero(t, n)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	database := setupTestDB(t)
	service := NewUserService(NewUserRepository(), database)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	// Both email and username collide: the email check wins and short-circuits.
	_, err = service.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "other"})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindDuplicate))
	assert.Equal(t, MsgEmailTaken, apperr.Message(err))
	assert.Equal(t, 1, countUsers(t, database, "email", "a@x.com"))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	database := setupTestDB(t)
	service := NewUserService(NewUserRepository(), database)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	_, err = service.Register(ctx, RegisterInput{Username: "alice", Email: "b@x.com", Password: "secret"})

	assert.True(t, apperr.Is(err, apperr.KindDuplicate))
	assert.Equal(t, MsgUsernameTaken, apperr.Message(err))
	assert.Equal(t, 0, countUsers(t, database, "email", "b@x.com"))
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	database := setupTestDB(t)
	service := NewUserService(NewUserRepository(), database)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Register(context.Background(), RegisterInput{
				Username: fmt.Sprintf("user%d", i),
				Email:    "race@x.com",
				Password: "secret",
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, apperr.Is(err, apperr.KindDuplicate), "unexpected error: %v", err)
		assert.Equal(t, MsgEmailTaken, apperr.Message(err))
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, countUsers(t, database, "email", "race@x.com"))
}

func TestRegister_LostRaceMapsToDuplicate(t *testing.T) {
	database := setupTestDB(t)
	repo := new(MockUserRepository)
	service := NewUserService(repo, database)

	repo.On("GetByEmail", mock.Anything, mock.Anything, "a@x.com").Return(nil, ErrUserNotFound)
	repo.On("GetByUsername", mock.Anything, mock.Anything, "alice").Return(nil, ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*user.User")).
		Return(0, &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key", TableName: "users"})

	_, err := service.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret"})

	assert.True(t, apperr.Is(err, apperr.KindDuplicate))
	assert.Equal(t, MsgUsernameTaken, apperr.Message(err))
	repo.AssertExpectations(t)
}

func TestRegister_StorageFailureIsGeneric(t *testing.T) {
	database := setupTestDB(t)
	repo := new(MockUserRepository)
	service := NewUserService(repo, database)

	repo.On("GetByEmail", mock.Anything, mock.Anything, "a@x.com").Return(nil, ErrUserNotFound)
	repo.On("GetByUsername", mock.Anything, mock.Anything, "alice").Return(nil, ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(0, errors.New("disk I/O error"))

	user, err := service.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret"})

	assert.Nil(t, user)
	assert.True(t, apperr.Is(err, apperr.KindStorage))
	assert.Equal(t, MsgAccountFailed, apperr.Message(err))
	assert.NotContains(t, apperr.Message(err), "disk")
}

func TestRegister_LookupFailure(t *testing.T) {
	database := setupTestDB(t)
	repo := new(MockUserRepository)
	service := NewUserService(repo, database)

	repo.On("GetByEmail", mock.Anything, mock.Anything, "a@x.com").Return(nil, errors.New("connection reset"))

	_, err := service.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret"})

	assert.True(t, apperr.Is(err, apperr.KindStorage))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthenticate(t *testing.T) {
	database := setupTestDB(t)
	service := NewUserService(NewUserRepository(), database)
	ctx := context.Background()

	registered, err := service.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		user, err := service.Authenticate(ctx, LoginInput{Email: "a@x.com", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("Unknown email and wrong password look the same", func(t *testing.T) {
		_, unknown := service.Authenticate(ctx, LoginInput{Email: "nobody@x.com", Password: "secret"})
		_, wrong := service.Authenticate(ctx, LoginInput{Email: "a@x.com", Password: "nope"})

		assert.True(t, apperr.Is(unknown, apperr.KindInvalidCredentials))
		assert.True(t, apperr.Is(wrong, apperr.KindInvalidCredentials))
		assert.Equal(t, apperr.Message(unknown), apperr.Message(wrong))
		assert.Equal(t, MsgWrongCredentials, apperr.Message(wrong))
	})

	t.Run("Missing fields", func(t *testing.T) {
		_, err := service.Authenticate(ctx, LoginInput{Email: "a@x.com"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestGetUserByID(t *testing.T) {
	database := setupTestDB(t)
	service := NewUserService(NewUserRepository(), database)
	ctx := context.Background()

	registered, err := service.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	user, err := service.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = service.GetUserByID(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
