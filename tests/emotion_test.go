package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illusion-note/backend-go/internal/database/models"
	"github.com/illusion-note/backend-go/internal/database/service"
	"github.com/illusion-note/backend-go/internal/openai"
	"github.com/illusion-note/backend-go/tests/testutil"
)

func createEmotionService(
	emotionRepo *testutil.MockEmotionRepository,
	analyzer *testutil.MockEmotionAnalyzer,
) service.EmotionService {
	return service.NewEmotionService(emotionRepo, analyzer, nil, testutil.TestConfig(), testutil.TestLogger())
}

// ==================== EMOTION SERVICE UNIT TESTS ====================

func TestEmotionService_Analyze(t *testing.T) {
	userID := uuid.New()
	analysis := &openai.AnalysisResult{
		Emotion:     "sadness",
		AnalyzeText: "The entry reflects a difficult day.",
		Response:    "It sounds like today was hard.",
	}

	t.Run("persists the analyzed entry", func(t *testing.T) {
		emotionRepo := new(testutil.MockEmotionRepository)
		analyzer := new(testutil.MockEmotionAnalyzer)
		analyzer.On("AnalyzeEmotion", mock.Anything, "today was rough", "", "comfort").Return(analysis, nil)
		emotionRepo.On("Create", mock.AnythingOfType("*models.EmotionEntry")).Run(func(args mock.Arguments) {
			args.Get(0).(*models.EmotionEntry).ID = 42
		}).Return(nil)

		svc := createEmotionService(emotionRepo, analyzer)
		entry, err := svc.Analyze(context.Background(), userID, "today was rough", "", "comfort")

		require.NoError(t, err)
		assert.Equal(t, uint(42), entry.ID)
		assert.Equal(t, "sadness", entry.Emotion)
		assert.Equal(t, "It sounds like today was hard.", entry.Response)
		emotionRepo.AssertExpectations(t)
		analyzer.AssertExpectations(t)
	})

	t.Run("storage failure still returns the analysis", func(t *testing.T) {
		emotionRepo := new(testutil.MockEmotionRepository)
		analyzer := new(testutil.MockEmotionAnalyzer)
		analyzer.On("AnalyzeEmotion", mock.Anything, "today was rough", "", "comfort").Return(analysis, nil)
		emotionRepo.On("Create", mock.AnythingOfType("*models.EmotionEntry")).Return(errors.New("db down"))

		svc := createEmotionService(emotionRepo, analyzer)
		entry, err := svc.Analyze(context.Background(), userID, "today was rough", "", "comfort")

		require.NoError(t, err)
		assert.Equal(t, uint(0), entry.ID)
		assert.Equal(t, "sadness", entry.Emotion)
	})

	t.Run("analysis failure is terminal", func(t *testing.T) {
		emotionRepo := new(testutil.MockEmotionRepository)
		analyzer := new(testutil.MockEmotionAnalyzer)
		analyzer.On("AnalyzeEmotion", mock.Anything, "text", "", "comfort").Return(nil, openai.ErrNoAPIKey)

		svc := createEmotionService(emotionRepo, analyzer)
		_, err := svc.Analyze(context.Background(), userID, "text", "", "comfort")

		assert.ErrorIs(t, err, openai.ErrNoAPIKey)
		emotionRepo.AssertNotCalled(t, "Create")
	})

	t.Run("empty emotion falls back to unknown", func(t *testing.T) {
		emotionRepo := new(testutil.MockEmotionRepository)
		analyzer := new(testutil.MockEmotionAnalyzer)
		analyzer.On("AnalyzeEmotion", mock.Anything, "text", "", "fact").Return(&openai.AnalysisResult{
			Response: "Just a reply.",
		}, nil)
		emotionRepo.On("Create", mock.AnythingOfType("*models.EmotionEntry")).Return(nil)

		svc := createEmotionService(emotionRepo, analyzer)
		entry, err := svc.Analyze(context.Background(), userID, "text", "", "fact")

		require.NoError(t, err)
		assert.Equal(t, "unknown", entry.Emotion)
	})

	t.Run("long entries get a generated title", func(t *testing.T) {
		longText := make([]byte, 250)
		for i := range longText {
			longText[i] = 'a'
		}

		emotionRepo := new(testutil.MockEmotionRepository)
		analyzer := new(testutil.MockEmotionAnalyzer)
		analyzer.On("AnalyzeEmotion", mock.Anything, string(longText), "", "comfort").Return(analysis, nil)
		analyzer.On("GenerateTitle", mock.Anything, string(longText)).Return("A Long Day", nil)
		emotionRepo.On("Create", mock.AnythingOfType("*models.EmotionEntry")).Return(nil)

		svc := createEmotionService(emotionRepo, analyzer)
		entry, err := svc.Analyze(context.Background(), userID, string(longText), "", "comfort")

		require.NoError(t, err)
		assert.Equal(t, "A Long Day", entry.Title)
	})
}

func TestEmotionService_History(t *testing.T) {
	userID := uuid.New()
	entries := []models.EmotionEntry{{ID: 1, UserID: userID, Emotion: "joy"}}

	tests := []struct {
		name       string
		offset     int
		limit      int
		wantOffset int
		wantLimit  int
	}{
		{name: "defaults", offset: 0, limit: 0, wantOffset: 0, wantLimit: 10},
		{name: "negative offset clamps to zero", offset: -5, limit: 20, wantOffset: 0, wantLimit: 20},
		{name: "oversized limit clamps to max", offset: 0, limit: 5000, wantOffset: 0, wantLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emotionRepo := new(testutil.MockEmotionRepository)
			analyzer := new(testutil.MockEmotionAnalyzer)
			emotionRepo.On("ListByUser", userID, tt.wantOffset, tt.wantLimit).Return(entries, nil)

			svc := createEmotionService(emotionRepo, analyzer)
			got, err := svc.History(userID, tt.offset, tt.limit)

			require.NoError(t, err)
			assert.Len(t, got, 1)
			emotionRepo.AssertExpectations(t)
		})
	}
}

func TestEmotionService_ByDate(t *testing.T) {
	userID := uuid.New()
	entries := []models.EmotionEntry{
		{ID: 1, UserID: userID, Emotion: "joy"},
		{ID: 2, UserID: userID, Emotion: "joy"},
		{ID: 3, UserID: userID, Emotion: ""},
	}

	emotionRepo := new(testutil.MockEmotionRepository)
	analyzer := new(testutil.MockEmotionAnalyzer)
	emotionRepo.On("ListByDateRange", userID, mock.Anything, mock.Anything, 100).Return(entries, nil)

	svc := createEmotionService(emotionRepo, analyzer)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	got, counts, err := svc.ByDate(userID, &start, nil, 0)

	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 2, counts["joy"])
	assert.Equal(t, 1, counts["unknown"])
}

func TestEmotionService_MonthlyStats(t *testing.T) {
	userID := uuid.New()
	entries := []models.EmotionEntry{
		{Emotion: "joy"},
		{Emotion: "sadness"},
		{Emotion: "joy"},
	}

	emotionRepo := new(testutil.MockEmotionRepository)
	analyzer := new(testutil.MockEmotionAnalyzer)
	emotionRepo.On("ListByDateRange", userID, mock.Anything, mock.Anything, 100).
		Run(func(args mock.Arguments) {
			start := args.Get(1).(*time.Time)
			end := args.Get(2).(*time.Time)
			assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *start)
			assert.True(t, end.After(*start))
			assert.True(t, end.Before(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
		}).
		Return(entries, nil)

	svc := createEmotionService(emotionRepo, analyzer)
	stats, err := svc.MonthlyStats(userID, 2025, 6)

	require.NoError(t, err)
	assert.Equal(t, 2025, stats.Year)
	assert.Equal(t, 6, stats.Month)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Emotions["joy"])
	assert.Equal(t, 1, stats.Emotions["sadness"])
}

func TestEmotionService_Recent(t *testing.T) {
	userID := uuid.New()
	entries := []models.EmotionEntry{
		{ID: 3, UserID: userID},
		{ID: 2, UserID: userID},
	}

	emotionRepo := new(testutil.MockEmotionRepository)
	analyzer := new(testutil.MockEmotionAnalyzer)
	// No cache wired, so the read goes straight to the repository
	emotionRepo.On("ListRecent", userID, 5).Return(entries, nil)

	svc := createEmotionService(emotionRepo, analyzer)
	got, err := svc.Recent(context.Background(), userID, 0)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	emotionRepo.AssertExpectations(t)
}

// ==================== OPENAI CLIENT TESTS ====================

func stubOpenAI(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		response := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(response)
	}))
}

func TestOpenAIClient_AnalyzeEmotion(t *testing.T) {
	t.Run("structured reply", func(t *testing.T) {
		server := stubOpenAI(t, `{"emotion": "joy", "analyze_text": "A happy entry.", "response": "Glad to hear it!"}`)
		defer server.Close()

		client := openai.NewClientForTesting("test-key", "gpt-test", server.URL, testutil.TestLogger())
		result, err := client.AnalyzeEmotion(context.Background(), "great day", "", "comfort")

		require.NoError(t, err)
		assert.Equal(t, "joy", result.Emotion)
		assert.Equal(t, "Glad to hear it!", result.Response)
	})

	t.Run("JSON wrapped in prose", func(t *testing.T) {
		server := stubOpenAI(t, "Sure! Here you go: {\"emotion\": \"anger\", \"analyze_text\": \"x\", \"response\": \"Take a breath.\"} Hope that helps.")
		defer server.Close()

		client := openai.NewClientForTesting("test-key", "gpt-test", server.URL, testutil.TestLogger())
		result, err := client.AnalyzeEmotion(context.Background(), "so annoyed", "", "advice")

		require.NoError(t, err)
		assert.Equal(t, "anger", result.Emotion)
		assert.Equal(t, "Take a breath.", result.Response)
	})

	t.Run("plain text falls back to the reported mood", func(t *testing.T) {
		server := stubOpenAI(t, "I am sorry you feel that way.")
		defer server.Close()

		client := openai.NewClientForTesting("test-key", "gpt-test", server.URL, testutil.TestLogger())
		result, err := client.AnalyzeEmotion(context.Background(), "bad day", "sadness", "comfort")

		require.NoError(t, err)
		assert.Equal(t, "sadness", result.Emotion)
		assert.Equal(t, "I am sorry you feel that way.", result.Response)
	})

	t.Run("no api key", func(t *testing.T) {
		client := openai.NewClientForTesting("", "gpt-test", "http://unused", testutil.TestLogger())
		_, err := client.AnalyzeEmotion(context.Background(), "text", "", "comfort")
		assert.ErrorIs(t, err, openai.ErrNoAPIKey)
	})

	t.Run("upstream error surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := openai.NewClientForTesting("test-key", "gpt-test", server.URL, testutil.TestLogger())
		_, err := client.AnalyzeEmotion(context.Background(), "text", "", "comfort")
		assert.ErrorContains(t, err, "429")
	})
}

func TestOpenAIClient_GenerateTitle(t *testing.T) {
	server := stubOpenAI(t, `"A Quiet Evening"`)
	defer server.Close()

	client := openai.NewClientForTesting("test-key", "gpt-test", server.URL, testutil.TestLogger())
	title, err := client.GenerateTitle(context.Background(), "some long diary entry")

	require.NoError(t, err)
	assert.Equal(t, "A Quiet Evening", title)
}

// ==================== EMOTION HANDLER INTEGRATION TESTS ====================

func TestAnalyzeHandler(t *testing.T) {
	userID := uuid.New()

	authService := new(testutil.MockAuthService)
	authService.On("ValidateAccessToken", "valid-access-token").Return(&service.AccessClaims{
		UserID: userID,
		Email:  "test@example.com",
		Name:   "Test User",
		Roles:  []string{"user"},
	}, nil)

	t.Run("success", func(t *testing.T) {
		emotionRepo := new(testutil.MockEmotionRepository)
		analyzer := new(testutil.MockEmotionAnalyzer)
		analyzer.On("AnalyzeEmotion", mock.Anything, "rough day", "sad", "comfort").Return(&openai.AnalysisResult{
			Emotion:     "sadness",
			AnalyzeText: "analysis",
			Response:    "reply",
		}, nil)
		emotionRepo.On("Create", mock.AnythingOfType("*models.EmotionEntry")).Return(nil)

		emotionService := createEmotionService(emotionRepo, analyzer)
		router := testutil.SetupRouterWithMocks(authService, emotionService)

		body, _ := json.Marshal(map[string]string{"text": "rough day", "mood": "sad"})
		req, _ := http.NewRequest("POST", testutil.AnalyzeEndpoint, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer valid-access-token")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "sadness", response["emotion"])
		assert.Equal(t, "reply", response["response"])
	})

	t.Run("missing text", func(t *testing.T) {
		emotionRepo := new(testutil.MockEmotionRepository)
		analyzer := new(testutil.MockEmotionAnalyzer)
		emotionService := createEmotionService(emotionRepo, analyzer)
		router := testutil.SetupRouterWithMocks(authService, emotionService)

		req, _ := http.NewRequest("POST", testutil.AnalyzeEndpoint, bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer valid-access-token")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		emotionRepo := new(testutil.MockEmotionRepository)
		analyzer := new(testutil.MockEmotionAnalyzer)
		emotionService := createEmotionService(emotionRepo, analyzer)
		router := testutil.SetupRouterWithMocks(authService, emotionService)

		body, _ := json.Marshal(map[string]string{"text": "rough day"})
		req, _ := http.NewRequest("POST", testutil.AnalyzeEndpoint, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, 401, w.Code)
		assert.Contains(t, w.Body.String(), "NO_TOKEN")
	})
}

func TestMonthlyStatsHandler(t *testing.T) {
	userID := uuid.New()

	authService := new(testutil.MockAuthService)
	authService.On("ValidateAccessToken", "valid-access-token").Return(&service.AccessClaims{
		UserID: userID,
		Email:  "test@example.com",
		Name:   "Test User",
		Roles:  []string{"user"},
	}, nil)

	emotionRepo := new(testutil.MockEmotionRepository)
	analyzer := new(testutil.MockEmotionAnalyzer)
	emotionRepo.On("ListByDateRange", userID, mock.Anything, mock.Anything, 100).Return([]models.EmotionEntry{
		{Emotion: "joy"},
		{Emotion: "joy"},
	}, nil)

	emotionService := createEmotionService(emotionRepo, analyzer)
	router := testutil.SetupRouterWithMocks(authService, emotionService)

	req, _ := http.NewRequest("GET", testutil.MonthlyStatsEndpoint+"?year=2025&month=6", nil)
	req.Header.Set("Authorization", "Bearer valid-access-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var stats service.MonthlyStats
	json.Unmarshal(w.Body.Bytes(), &stats)
	assert.Equal(t, 2025, stats.Year)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Emotions["joy"])
}

func TestByDateHandler_BadDate(t *testing.T) {
	userID := uuid.New()

	authService := new(testutil.MockAuthService)
	authService.On("ValidateAccessToken", "valid-access-token").Return(&service.AccessClaims{
		UserID: userID,
		Email:  "test@example.com",
		Name:   "Test User",
		Roles:  []string{"user"},
	}, nil)

	emotionRepo := new(testutil.MockEmotionRepository)
	analyzer := new(testutil.MockEmotionAnalyzer)
	emotionService := createEmotionService(emotionRepo, analyzer)
	router := testutil.SetupRouterWithMocks(authService, emotionService)

	req, _ := http.NewRequest("GET", testutil.ByDateEndpoint+"?start=not-a-date", nil)
	req.Header.Set("Authorization", "Bearer valid-access-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}
