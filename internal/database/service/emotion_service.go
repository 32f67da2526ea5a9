package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/illusion-note/backend-go/internal/config"
	"github.com/illusion-note/backend-go/internal/database/models"
	"github.com/illusion-note/backend-go/internal/database/repository"
	"github.com/illusion-note/backend-go/internal/openai"
)

// List bounds, matching the storage collaborator's clamping rules.
const (
	defaultListLimit = 10
	maxListLimit     = 100
	defaultRecent    = 5
)

// EmotionAnalyzer generates an emotion analysis and reply for a diary entry.
// Satisfied by openai.Client.
type EmotionAnalyzer interface {
	AnalyzeEmotion(ctx context.Context, text, mood, responseType string) (*openai.AnalysisResult, error)
	GenerateTitle(ctx context.Context, text string) (string, error)
}

// RecentEntriesCache is the best-effort cache in front of recent-entry reads.
// Satisfied by database.RedisClient; may be nil when Redis is unavailable.
type RecentEntriesCache interface {
	GetRecentEntries(ctx context.Context, userID uuid.UUID) ([]models.EmotionEntry, error)
	SetRecentEntries(ctx context.Context, userID uuid.UUID, entries []models.EmotionEntry) error
	InvalidateRecentEntries(ctx context.Context, userID uuid.UUID) error
}

// EmotionService defines the interface for emotion diary operations
type EmotionService interface {
	Analyze(ctx context.Context, userID uuid.UUID, text, mood, responseType string) (*models.EmotionEntry, error)
	History(userID uuid.UUID, offset, limit int) ([]models.EmotionEntry, error)
	ByDate(userID uuid.UUID, start, end *time.Time, limit int) ([]models.EmotionEntry, map[string]int, error)
	MonthlyStats(userID uuid.UUID, year, month int) (*MonthlyStats, error)
	Recent(ctx context.Context, userID uuid.UUID, count int) ([]models.EmotionEntry, error)
}

// MonthlyStats aggregates one month of entries by emotion.
type MonthlyStats struct {
	Year     int            `json:"year"`
	Month    int            `json:"month"`
	Total    int            `json:"total"`
	Emotions map[string]int `json:"emotions"`
}

type emotionService struct {
	emotionRepo repository.EmotionRepository
	analyzer    EmotionAnalyzer
	cache       RecentEntriesCache
	cfg         *config.Config
	logger      *slog.Logger
}

// NewEmotionService creates a new emotion service instance. cache may be nil.
func NewEmotionService(
	emotionRepo repository.EmotionRepository,
	analyzer EmotionAnalyzer,
	cache RecentEntriesCache,
	cfg *config.Config,
	logger *slog.Logger,
) EmotionService {
	return &emotionService{
		emotionRepo: emotionRepo,
		analyzer:    analyzer,
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
	}
}

// Analyze runs the LLM analysis and persists the resulting entry. Unlike the
// auth core, persistence here is tolerant: a storage failure is logged and
// the analysis still goes back to the user, with entry.ID left zero.
func (s *emotionService) Analyze(ctx context.Context, userID uuid.UUID, text, mood, responseType string) (*models.EmotionEntry, error) {
	s.logger.Info("💭 [EmotionService] Analysis request", "user_id", userID, "mood", mood, "response_type", responseType)

	result, err := s.analyzer.AnalyzeEmotion(ctx, text, mood, responseType)
	if err != nil {
		s.logger.Error("❌ [EmotionService] Analysis failed", "user_id", userID, "error", err)
		return nil, err
	}

	entry := &models.EmotionEntry{
		UserID:       userID,
		Text:         text,
		Emotion:      result.Emotion,
		Response:     result.Response,
		AnalyzeText:  result.AnalyzeText,
		ResponseType: responseType,
		CreatedAt:    time.Now(),
	}
	if entry.Emotion == "" {
		entry.Emotion = "unknown"
	}

	if len(text) > 200 {
		if title, err := s.analyzer.GenerateTitle(ctx, text); err == nil {
			entry.Title = title
		} else {
			s.logger.Warn("⚠️ [EmotionService] Title generation failed, continuing", "error", err)
		}
	}

	if err := s.emotionRepo.Create(entry); err != nil {
		s.logger.Warn("⚠️ [EmotionService] Failed to persist entry, returning analysis anyway",
			"user_id", userID,
			"error", err,
		)
	} else if s.cache != nil {
		if err := s.cache.InvalidateRecentEntries(ctx, userID); err != nil {
			s.logger.Warn("⚠️ [EmotionService] Cache invalidation failed", "user_id", userID, "error", err)
		}
	}

	s.logger.Info("✅ [EmotionService] Analysis complete", "user_id", userID, "emotion", entry.Emotion)
	return entry, nil
}

func (s *emotionService) History(userID uuid.UUID, offset, limit int) ([]models.EmotionEntry, error) {
	offset, limit = clampRange(offset, limit, defaultListLimit)
	return s.emotionRepo.ListByUser(userID, offset, limit)
}

// ByDate lists entries within the date range and aggregates emotion counts
// over the result.
func (s *emotionService) ByDate(userID uuid.UUID, start, end *time.Time, limit int) ([]models.EmotionEntry, map[string]int, error) {
	if limit < 1 || limit > maxListLimit {
		limit = maxListLimit
	}

	entries, err := s.emotionRepo.ListByDateRange(userID, start, end, limit)
	if err != nil {
		return nil, nil, err
	}

	counts := make(map[string]int)
	for _, entry := range entries {
		emotion := entry.Emotion
		if emotion == "" {
			emotion = "unknown"
		}
		counts[emotion]++
	}

	return entries, counts, nil
}

func (s *emotionService) MonthlyStats(userID uuid.UUID, year, month int) (*MonthlyStats, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)

	entries, err := s.emotionRepo.ListByDateRange(userID, &start, &end, maxListLimit)
	if err != nil {
		return nil, err
	}

	stats := &MonthlyStats{
		Year:     year,
		Month:    month,
		Emotions: make(map[string]int),
	}
	for _, entry := range entries {
		emotion := entry.Emotion
		if emotion == "" {
			emotion = "unknown"
		}
		stats.Emotions[emotion]++
		stats.Total++
	}

	return stats, nil
}

// Recent returns the user's most recent entries, served from the cache when
// warm. Cache errors fall through to Postgres.
func (s *emotionService) Recent(ctx context.Context, userID uuid.UUID, count int) ([]models.EmotionEntry, error) {
	if count < 1 || count > maxListLimit {
		count = defaultRecent
	}

	if s.cache != nil {
		if cached, err := s.cache.GetRecentEntries(ctx, userID); err == nil && cached != nil && len(cached) >= count {
			return cached[:count], nil
		}
	}

	entries, err := s.emotionRepo.ListRecent(userID, count)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRecentEntries(ctx, userID, entries); err != nil {
			s.logger.Warn("⚠️ [EmotionService] Failed to warm recent cache", "user_id", userID, "error", err)
		}
	}

	return entries, nil
}

func clampRange(offset, limit, defaultLimit int) (int, int) {
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
