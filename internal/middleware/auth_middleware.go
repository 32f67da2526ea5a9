package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/illusion-note/backend-go/internal/database/service"
)

// Machine-readable authentication failure codes. All map to 401, but clients
// use the code to decide between attempting a refresh (TOKEN_EXPIRED) and
// forcing a re-login (NO_TOKEN / INVALID_TOKEN).
const (
	CodeNoToken      = "NO_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeForbidden    = "FORBIDDEN"
)

// Context keys set by RequireAuth.
const (
	ContextUserIDKey = "userID"
	ContextClaimsKey = "claims"
)

// AuthMiddleware handles access token validation
type AuthMiddleware struct {
	service service.AuthService
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(service service.AuthService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		logger:  logger,
	}
}

// RequireAuth validates the bearer credential and attaches the verified
// identity to the request context. Verification is stateless: signature and
// expiry only, never a store lookup.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			m.logger.Warn("⚠️ [Middleware] Missing access token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required", "code": CodeNoToken})
			c.Abort()
			return
		}

		claims, err := m.service.ValidateAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, service.ErrAccessTokenExpired) {
				m.logger.Warn("⚠️ [Middleware] Expired access token")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token expired", "code": CodeTokenExpired})
			} else {
				m.logger.Warn("⚠️ [Middleware] Invalid access token", "error", err)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token", "code": CodeInvalidToken})
			}
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextClaimsKey, claims)
		m.logger.Debug("✅ [Middleware] Token validated", "user_id", claims.UserID)

		c.Next()
	}
}

// RequireRole short-circuits with 403 when the verified claim set lacks the
// role. Must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil || !claims.HasRole(role) {
			m.logger.Warn("⚠️ [Middleware] Insufficient role", "required", role)
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions", "code": CodeForbidden})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the verified claims attached by RequireAuth, or
// nil when the request was not authenticated.
func ClaimsFromContext(c *gin.Context) *service.AccessClaims {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*service.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

// extractToken prefers the Authorization bearer header; the access_token
// cookie is a fallback channel for the browser client.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}
