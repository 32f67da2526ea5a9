package tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/illusion-note/backend-go/internal/database/models"
	"github.com/illusion-note/backend-go/internal/database/repository"
)

func setupEmotionTestDB(t *testing.T) *gorm.DB {
	db := setupTokenTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.EmotionEntry{}))
	return db
}

// ==================== EMOTION REPOSITORY TESTS ====================

func TestEmotionRepository_CreateAndFind(t *testing.T) {
	db := setupEmotionTestDB(t)
	repo := repository.NewEmotionRepository(db)
	user := createTokenTestUser(t, db, "diary@example.com")

	entry := &models.EmotionEntry{
		UserID:       user.ID,
		Text:         "today was a good day",
		Emotion:      "joy",
		Response:     "Glad to hear it!",
		ResponseType: "comfort",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(entry))
	assert.NotZero(t, entry.ID)

	found, err := repo.FindByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "joy", found.Emotion)

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)
}

func TestEmotionRepository_ListByUser(t *testing.T) {
	db := setupEmotionTestDB(t)
	repo := repository.NewEmotionRepository(db)
	user := createTokenTestUser(t, db, "list@example.com")
	other := createTokenTestUser(t, db, "other@example.com")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(&models.EmotionEntry{
			UserID:    user.ID,
			Text:      "entry",
			Emotion:   "joy",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(&models.EmotionEntry{
		UserID:    other.ID,
		Text:      "not mine",
		Emotion:   "anger",
		CreatedAt: time.Now(),
	}))

	entries, err := repo.ListByUser(user.ID, 0, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Newest first
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))
	for _, e := range entries {
		assert.Equal(t, user.ID, e.UserID)
	}

	// Offset walks backwards through history
	page2, err := repo.ListByUser(user.ID, 3, 3)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
}

func TestEmotionRepository_ListByDateRange(t *testing.T) {
	db := setupEmotionTestDB(t)
	repo := repository.NewEmotionRepository(db)
	user := createTokenTestUser(t, db, "range@example.com")

	may := time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)
	june := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	july := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{may, june, july} {
		require.NoError(t, repo.Create(&models.EmotionEntry{
			UserID:    user.ID,
			Text:      "entry",
			Emotion:   "joy",
			CreatedAt: at,
		}))
	}

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)

	entries, err := repo.ListByDateRange(user.ID, &start, &end, 100)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, june.Unix(), entries[0].CreatedAt.Unix())

	// Open-ended lower bound
	entries, err = repo.ListByDateRange(user.ID, nil, &end, 100)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestEmotionRepository_ListRecent(t *testing.T) {
	db := setupEmotionTestDB(t)
	repo := repository.NewEmotionRepository(db)
	user := createTokenTestUser(t, db, "recent@example.com")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		require.NoError(t, repo.Create(&models.EmotionEntry{
			UserID:    user.ID,
			Text:      "entry",
			Emotion:   "joy",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.ListRecent(user.ID, 5)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.True(t, entries[0].CreatedAt.After(entries[4].CreatedAt))
}
