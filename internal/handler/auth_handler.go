package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/illusion-note/backend-go/internal/database/models"
	"github.com/illusion-note/backend-go/internal/database/service"
	"github.com/illusion-note/backend-go/internal/middleware"
)

// AuthHandler handles HTTP requests for token-based authentication
type AuthHandler struct {
	service service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(service service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// Request/Response DTOs
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type UserPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
}

type TokenResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
	User         UserPayload `json:"user"`
}

// GoogleLogin handles POST /api/token-auth/google-login
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("⚠️ [Handler] Missing idToken in login request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "idToken is required"})
		return
	}

	user, tokens, err := h.service.GoogleLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		h.logger.Warn("⚠️ [Handler] Google login failed", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Login failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, tokenResponse(user, tokens))
}

// Refresh handles POST /api/token-auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("⚠️ [Handler] Missing refreshToken in refresh request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}

	user, tokens, err := h.service.RefreshToken(req.RefreshToken)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse(user, tokens))
}

// Logout handles POST /api/token-auth/logout. Revoking an already revoked
// token still reports success.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("⚠️ [Handler] Missing refreshToken in logout request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}

	if err := h.service.Logout(req.RefreshToken); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// LogoutAll handles POST /api/token-auth/logout-all (bearer-authenticated).
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": middleware.CodeNoToken})
		return
	}

	if err := h.service.LogoutAll(claims.UserID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out of all sessions"})
}

// Me handles GET /api/token-auth/me. Served entirely from the verified
// claims, no store lookup.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": middleware.CodeNoToken})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    claims.UserID,
			"name":  claims.Name,
			"email": claims.Email,
			"roles": claims.Roles,
		},
	})
}

// Protected handles GET /api/token-auth/protected, an example resource for
// client integration tests.
func (h *AuthHandler) Protected(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": middleware.CodeNoToken})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "This resource is only visible to authenticated users",
		"user": gin.H{
			"id":    claims.UserID,
			"name":  claims.Name,
			"email": claims.Email,
			"roles": claims.Roles,
		},
		"timestamp": time.Now().UTC(),
	})
}

// CleanupTokens handles POST /api/token-auth/cleanup-tokens. The admin role
// requirement is enforced by middleware before this runs.
func (h *AuthHandler) CleanupTokens(c *gin.Context) {
	swept, err := h.service.CleanupExpiredTokens()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Expired token cleanup completed",
		"swept":   swept,
	})
}

func tokenResponse(user *models.User, tokens *service.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		User: UserPayload{
			ID:      user.ID.String(),
			Name:    user.Name,
			Email:   user.Email,
			Picture: user.Picture,
		},
	}
}

// handleServiceError maps service errors to HTTP responses with stable codes
func (h *AuthHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token", "code": middleware.CodeInvalidToken})
	case errors.Is(err, service.ErrRefreshTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired", "code": middleware.CodeTokenExpired})
	case errors.Is(err, service.ErrInvalidAccessToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token", "code": middleware.CodeInvalidToken})
	case errors.Is(err, service.ErrAccessTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token expired", "code": middleware.CodeTokenExpired})
	default:
		h.logger.Error("❌ [Handler] Internal server error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
