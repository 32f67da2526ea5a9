package testutil

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/illusion-note/backend-go/internal/api"
	"github.com/illusion-note/backend-go/internal/config"
	"github.com/illusion-note/backend-go/internal/database/models"
	"github.com/illusion-note/backend-go/internal/database/service"
	googleauth "github.com/illusion-note/backend-go/internal/google"
	"github.com/illusion-note/backend-go/internal/handler"
	"github.com/illusion-note/backend-go/internal/middleware"
	"github.com/illusion-note/backend-go/internal/openai"
)

// ==================== MOCK USER REPOSITORY ====================

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(id uuid.UUID) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(id uuid.UUID, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

// ==================== MOCK REFRESH TOKEN REPOSITORY ====================

// MockRefreshTokenRepository implements repository.RefreshTokenRepository for testing
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) FindByToken(token string) (*models.RefreshToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Replace(userID uuid.UUID, newToken *models.RefreshToken) error {
	args := m.Called(userID, newToken)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) Rotate(consumedID uint, newToken *models.RefreshToken) error {
	args := m.Called(consumedID, newToken)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeToken(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllUserTokens(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeExpiredTokens() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// ==================== MOCK EMOTION REPOSITORY ====================

// MockEmotionRepository implements repository.EmotionRepository for testing
type MockEmotionRepository struct {
	mock.Mock
}

func (m *MockEmotionRepository) Create(entry *models.EmotionEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}

func (m *MockEmotionRepository) FindByID(id uint) (*models.EmotionEntry, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmotionEntry), args.Error(1)
}

func (m *MockEmotionRepository) ListByUser(userID uuid.UUID, offset, limit int) ([]models.EmotionEntry, error) {
	args := m.Called(userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmotionEntry), args.Error(1)
}

func (m *MockEmotionRepository) ListByDateRange(userID uuid.UUID, start, end *time.Time, limit int) ([]models.EmotionEntry, error) {
	args := m.Called(userID, start, end, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmotionEntry), args.Error(1)
}

func (m *MockEmotionRepository) ListRecent(userID uuid.UUID, count int) ([]models.EmotionEntry, error) {
	args := m.Called(userID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmotionEntry), args.Error(1)
}

// ==================== MOCK IDENTITY VERIFIER ====================

// MockIdentityVerifier implements service.IdentityVerifier for testing
type MockIdentityVerifier struct {
	mock.Mock
}

func (m *MockIdentityVerifier) Verify(ctx context.Context, idToken string) (*googleauth.Claims, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*googleauth.Claims), args.Error(1)
}

// ==================== MOCK EMOTION ANALYZER ====================

// MockEmotionAnalyzer implements service.EmotionAnalyzer for testing
type MockEmotionAnalyzer struct {
	mock.Mock
}

func (m *MockEmotionAnalyzer) AnalyzeEmotion(ctx context.Context, text, mood, responseType string) (*openai.AnalysisResult, error) {
	args := m.Called(ctx, text, mood, responseType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openai.AnalysisResult), args.Error(1)
}

func (m *MockEmotionAnalyzer) GenerateTitle(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

// ==================== MOCK AUTH SERVICE ====================

// MockAuthService implements service.AuthService for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) GoogleLogin(ctx context.Context, idToken string) (*models.User, *service.TokenPair, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*service.TokenPair), args.Error(2)
}

func (m *MockAuthService) RefreshToken(refreshToken string) (*models.User, *service.TokenPair, error) {
	args := m.Called(refreshToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*service.TokenPair), args.Error(2)
}

func (m *MockAuthService) Logout(refreshToken string) error {
	args := m.Called(refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) LogoutAll(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockAuthService) ValidateAccessToken(tokenString string) (*service.AccessClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessClaims), args.Error(1)
}

func (m *MockAuthService) CleanupExpiredTokens() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// ==================== TEST CONFIGURATION ====================

// TestConfig returns a config suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		AppEnv:                 "test",
		ApiServicePort:         "8080",
		JWTSecret:              "test-secret-key-for-testing-purposes",
		AccessTokenExpiration:  900,
		RefreshTokenExpiration: 604800,
		GoogleClientIDs:        []string{"test-client-id.apps.googleusercontent.com"},
		GoogleVerifyTimeout:    5,
		RecentCacheTTL:         300,
		TokenCleanupInterval:   3600,
	}
}

// TestLogger returns a silent logger for testing
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ==================== SERVICE AND ROUTER HELPERS ====================

// CreateAuthServiceWithMocks creates an auth service with mock collaborators for unit testing
func CreateAuthServiceWithMocks(
	userRepo *MockUserRepository,
	refreshTokenRepo *MockRefreshTokenRepository,
	verifier *MockIdentityVerifier,
) service.AuthService {
	return service.NewAuthService(userRepo, refreshTokenRepo, verifier, TestConfig(), TestLogger())
}

// SetupRouterWithMocks creates a router wired to the given services
func SetupRouterWithMocks(authService service.AuthService, emotionService service.EmotionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := TestLogger()

	authHandler := handler.NewAuthHandler(authService, logger)
	emotionHandler := handler.NewEmotionHandler(emotionService, logger)
	authMiddleware := middleware.NewAuthMiddleware(authService, logger)

	return api.SetupRouter(authHandler, emotionHandler, authMiddleware)
}

// SetupAuthRouterWithRepos creates a router with a real auth service over mock repositories
func SetupAuthRouterWithRepos(
	userRepo *MockUserRepository,
	refreshTokenRepo *MockRefreshTokenRepository,
	verifier *MockIdentityVerifier,
) *gin.Engine {
	authService := CreateAuthServiceWithMocks(userRepo, refreshTokenRepo, verifier)
	return SetupRouterWithMocks(authService, nil)
}
