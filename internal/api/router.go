package api

import (
	"github.com/gin-gonic/gin"

	"github.com/illusion-note/backend-go/internal/handler"
	"github.com/illusion-note/backend-go/internal/middleware"
)

func SetupRouter(
	authHandler *handler.AuthHandler,
	emotionHandler *handler.EmotionHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	r := gin.Default()
	r.SetTrustedProxies(nil)

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Auth routes (Public)
	authGroup := r.Group("/api/token-auth")
	{
		authGroup.POST("/google-login", authHandler.GoogleLogin)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Auth routes requiring a valid access token
	authProtected := r.Group("/api/token-auth")
	authProtected.Use(authMiddleware.RequireAuth())
	{
		authProtected.POST("/logout-all", authHandler.LogoutAll)
		authProtected.GET("/me", authHandler.Me)
		authProtected.GET("/protected", authHandler.Protected)
	}

	// Admin-only maintenance routes
	adminGroup := r.Group("/api/token-auth")
	adminGroup.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole("admin"))
	{
		adminGroup.POST("/cleanup-tokens", authHandler.CleanupTokens)
	}

	// Emotion diary routes
	emotionGroup := r.Group("/api/emotion")
	emotionGroup.Use(authMiddleware.RequireAuth())
	{
		emotionGroup.POST("/openai", emotionHandler.Analyze)
		emotionGroup.GET("/history", emotionHandler.History)
		emotionGroup.GET("/by-date", emotionHandler.ByDate)
		emotionGroup.GET("/monthly-stats", emotionHandler.MonthlyStats)
		emotionGroup.GET("/recent", emotionHandler.Recent)
	}

	return r
}
