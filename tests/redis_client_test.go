package tests

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illusion-note/backend-go/internal/database"
	"github.com/illusion-note/backend-go/internal/database/models"
	"github.com/illusion-note/backend-go/tests/testutil"
)

func setupRedisTest(t *testing.T) (*database.RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return database.NewRedisClientForTesting(client, testutil.TestConfig(), testutil.TestLogger()), mr
}

// ==================== RECENT ENTRIES CACHE TESTS ====================

func TestRedisClient_RecentEntriesRoundTrip(t *testing.T) {
	cache, _ := setupRedisTest(t)
	ctx := context.Background()
	userID := uuid.New()

	entries := []models.EmotionEntry{
		{ID: 2, UserID: userID, Emotion: "joy", Text: "good day", CreatedAt: time.Now().UTC().Truncate(time.Second)},
		{ID: 1, UserID: userID, Emotion: "sadness", Text: "bad day", CreatedAt: time.Now().UTC().Truncate(time.Second)},
	}

	require.NoError(t, cache.SetRecentEntries(ctx, userID, entries))

	got, err := cache.GetRecentEntries(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint(2), got[0].ID)
	assert.Equal(t, "joy", got[0].Emotion)
}

func TestRedisClient_CacheMissReturnsNil(t *testing.T) {
	cache, _ := setupRedisTest(t)

	got, err := cache.GetRecentEntries(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisClient_CorruptCacheIsDropped(t *testing.T) {
	cache, mr := setupRedisTest(t)
	userID := uuid.New()
	key := "user:" + userID.String() + ":recent-entries"

	require.NoError(t, mr.Set(key, "not json"))

	got, err := cache.GetRecentEntries(context.Background(), userID)
	assert.NoError(t, err)
	assert.Nil(t, got)
	// The poisoned key was deleted, not left to fail every read
	assert.False(t, mr.Exists(key))
}

func TestRedisClient_InvalidateRecentEntries(t *testing.T) {
	cache, mr := setupRedisTest(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, cache.SetRecentEntries(ctx, userID, []models.EmotionEntry{{ID: 1, UserID: userID}}))
	require.NoError(t, cache.InvalidateRecentEntries(ctx, userID))

	got, err := cache.GetRecentEntries(ctx, userID)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("user:"+userID.String()+":recent-entries"))
}

func TestRedisClient_EntriesExpire(t *testing.T) {
	cache, mr := setupRedisTest(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, cache.SetRecentEntries(ctx, userID, []models.EmotionEntry{{ID: 1, UserID: userID}}))

	// TestConfig sets a 300 second TTL
	mr.FastForward(301 * time.Second)

	got, err := cache.GetRecentEntries(ctx, userID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
