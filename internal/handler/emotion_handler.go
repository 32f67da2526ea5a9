package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/illusion-note/backend-go/internal/database/service"
	"github.com/illusion-note/backend-go/internal/middleware"
)

// EmotionHandler handles HTTP requests for the emotion diary
type EmotionHandler struct {
	service service.EmotionService
	logger  *slog.Logger
}

// NewEmotionHandler creates a new emotion handler
func NewEmotionHandler(service service.EmotionService, logger *slog.Logger) *EmotionHandler {
	return &EmotionHandler{
		service: service,
		logger:  logger,
	}
}

type AnalyzeRequest struct {
	Text         string `json:"text" binding:"required"`
	Mood         string `json:"mood"`
	ResponseType string `json:"response_type"`
}

// Analyze handles POST /api/emotion/openai
func (h *EmotionHandler) Analyze(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	if req.ResponseType == "" {
		req.ResponseType = "comfort"
	}

	entry, err := h.service.Analyze(c.Request.Context(), userID, req.Text, req.Mood, req.ResponseType)
	if err != nil {
		h.logger.Error("❌ [Handler] Emotion analysis failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Emotion analysis failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"emotion":      entry.Emotion,
		"analyze_text": entry.AnalyzeText,
		"response":     entry.Response,
		"title":        entry.Title,
		"entry_id":     entry.ID,
		"created_at":   entry.CreatedAt,
	})
}

// History handles GET /api/emotion/history
func (h *EmotionHandler) History(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 0)

	entries, err := h.service.History(userID, offset, limit)
	if err != nil {
		h.logger.Error("❌ [Handler] History lookup failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// ByDate handles GET /api/emotion/by-date. start and end are optional
// RFC 3339 dates; either bound may be omitted.
func (h *EmotionHandler) ByDate(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	start, err := dateQuery(c, "start")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be an RFC 3339 date"})
		return
	}
	end, err := dateQuery(c, "end")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be an RFC 3339 date"})
		return
	}
	limit := intQuery(c, "limit", 0)

	entries, counts, err := h.service.ByDate(userID, start, end, limit)
	if err != nil {
		h.logger.Error("❌ [Handler] By-date lookup failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":       entries,
		"count":         len(entries),
		"emotionCounts": counts,
	})
}

// MonthlyStats handles GET /api/emotion/monthly-stats
func (h *EmotionHandler) MonthlyStats(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	now := time.Now()
	year := intQuery(c, "year", now.Year())
	month := intQuery(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be between 1 and 12"})
		return
	}

	stats, err := h.service.MonthlyStats(userID, year, month)
	if err != nil {
		h.logger.Error("❌ [Handler] Monthly stats failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Recent handles GET /api/emotion/recent
func (h *EmotionHandler) Recent(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	count := intQuery(c, "count", 0)

	entries, err := h.service.Recent(c.Request.Context(), userID, count)
	if err != nil {
		h.logger.Error("❌ [Handler] Recent lookup failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load recent entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// requestUserID pulls the authenticated user ID out of the request context.
// Writes the 401 itself on failure so callers can just return.
func requestUserID(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": middleware.CodeNoToken})
		return uuid.Nil, false
	}
	return claims.UserID, true
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// dateQuery parses an optional date parameter, accepting a bare date or a
// full RFC 3339 timestamp.
func dateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
