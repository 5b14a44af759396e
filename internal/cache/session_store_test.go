package cache

import (
	"context"
	"testing"
	"time"

	"blog_service/internal/session"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client for testing
// Make sure Redis is running on localhost:6379
func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     "localhost:6379",
		Password: "",
		DB:       1, // Use DB 1 for tests (not default DB 0)
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis not available, skipping test")
	}

	client.FlushDB(ctx)
	return client
}

func TestSessionStore_CreateGetDelete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	store := NewSessionStore(client)
	now := time.Now().UTC()

	require.NoError(t, store.Create(ctx, &session.Session{ID: "sid-1", UserID: 9, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.UserID)

	ttl, err := client.TTL(ctx, SessionKey("sid-1")).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionStore_RejectsExpired(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	now := time.Now().UTC()
	err := NewSessionStore(client).Create(context.Background(), &session.Session{ID: "old", UserID: 1, CreatedAt: now, ExpiresAt: now.Add(-time.Second)})

	assert.Error(t, err)
}

func TestSessionStore_ManagerIntegration(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	manager := session.NewManager(NewSessionStore(client), "secret", time.Minute)

	token, _, err := manager.Start(ctx, 5)
	require.NoError(t, err)

	sess, err := manager.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 5, sess.UserID)

	require.NoError(t, manager.End(ctx, token))
	_, err = manager.Resolve(ctx, token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "session:abc", SessionKey("abc"))
}
