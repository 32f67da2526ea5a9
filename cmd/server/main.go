package main

import (
	"fmt"
	"os"
	"time"

	"github.com/illusion-note/backend-go/internal/api"
	"github.com/illusion-note/backend-go/internal/config"
	"github.com/illusion-note/backend-go/internal/database"
	"github.com/illusion-note/backend-go/internal/database/repository"
	"github.com/illusion-note/backend-go/internal/database/service"
	"github.com/illusion-note/backend-go/internal/google"
	"github.com/illusion-note/backend-go/internal/handler"
	"github.com/illusion-note/backend-go/internal/logger"
	"github.com/illusion-note/backend-go/internal/middleware"
	"github.com/illusion-note/backend-go/internal/openai"
	"github.com/illusion-note/backend-go/internal/worker"
)

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	appLogger.Info("🚀 [Go] Starting Illusion Note backend...",
		"environment", cfg.AppEnv,
	)

	// 3. Connect to Database
	if err := database.ConnectDatabase(cfg, appLogger); err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}

	db := database.GetDatabase()

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	emotionRepo := repository.NewEmotionRepository(db)

	// 5. Initialize Redis Client
	redisClient, err := database.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis for recent-entries cache", "error", err)
		appLogger.Info("💡 Recent entries will only use Postgres (no Redis caching)")
		// Continue without Redis - reads fall through to Postgres
	}
	defer func() {
		if redisClient != nil {
			redisClient.Close()
		}
	}()

	// 6. Initialize Google ID token verifier
	verifier := google.NewVerifier(cfg, appLogger)
	if len(cfg.GoogleClientIDs) == 0 {
		appLogger.Warn("⚠️ No Google client IDs configured, logins will be rejected")
	}

	// 7. Initialize OpenAI client
	openaiClient := openai.NewClient(cfg, appLogger)

	// 8. Initialize Services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, verifier, cfg, appLogger)

	var cache service.RecentEntriesCache
	if redisClient != nil {
		cache = redisClient
	}
	emotionService := service.NewEmotionService(emotionRepo, openaiClient, cache, cfg, appLogger)

	// 9. Initialize Handlers & Middleware
	authHandler := handler.NewAuthHandler(authService, appLogger)
	emotionHandler := handler.NewEmotionHandler(emotionService, appLogger)
	authMiddleware := middleware.NewAuthMiddleware(authService, appLogger)

	// 10. Start background token cleanup
	pool := worker.NewPool(appLogger)
	cleanup := worker.NewTokenCleanup(
		authService,
		time.Duration(cfg.TokenCleanupInterval)*time.Second,
		appLogger,
	)
	pool.Submit(cleanup.Run)
	defer pool.Shutdown(10 * time.Second)

	// 11. Setup Router and start HTTP Server
	r := api.SetupRouter(authHandler, emotionHandler, authMiddleware)

	addr := fmt.Sprintf(":%s", cfg.ApiServicePort)
	appLogger.Info("🌍 [Go] HTTP Server running on port...", "port", addr)
	if err := r.Run(addr); err != nil {
		appLogger.Error("❌ HTTP Server failed to start", "error", err)
		os.Exit(1)
	}
}
