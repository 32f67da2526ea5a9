package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/illusion-note/backend-go/internal/database/models"
)

// EmotionRepository defines the interface for emotion entry storage
type EmotionRepository interface {
	Create(entry *models.EmotionEntry) error
	FindByID(id uint) (*models.EmotionEntry, error)
	ListByUser(userID uuid.UUID, offset, limit int) ([]models.EmotionEntry, error)
	ListByDateRange(userID uuid.UUID, start, end *time.Time, limit int) ([]models.EmotionEntry, error)
	ListRecent(userID uuid.UUID, count int) ([]models.EmotionEntry, error)
}

type emotionRepository struct {
	db *gorm.DB
}

// NewEmotionRepository creates a new emotion repository instance
func NewEmotionRepository(db *gorm.DB) EmotionRepository {
	return &emotionRepository{db: db}
}

func (r *emotionRepository) Create(entry *models.EmotionEntry) error {
	return r.db.Create(entry).Error
}

func (r *emotionRepository) FindByID(id uint) (*models.EmotionEntry, error) {
	var entry models.EmotionEntry
	err := r.db.First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *emotionRepository) ListByUser(userID uuid.UUID, offset, limit int) ([]models.EmotionEntry, error) {
	var entries []models.EmotionEntry
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *emotionRepository) ListByDateRange(userID uuid.UUID, start, end *time.Time, limit int) ([]models.EmotionEntry, error) {
	query := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit)

	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at <= ?", *end)
	}

	var entries []models.EmotionEntry
	err := query.Find(&entries).Error
	return entries, err
}

func (r *emotionRepository) ListRecent(userID uuid.UUID, count int) ([]models.EmotionEntry, error) {
	var entries []models.EmotionEntry
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(count).
		Find(&entries).Error
	return entries, err
}

// Repository errors
var (
	ErrEntryNotFound = errors.New("emotion entry not found")
)
