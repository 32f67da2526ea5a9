package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/illusion-note/backend-go/internal/config"
	"github.com/illusion-note/backend-go/internal/database/models"
	"github.com/illusion-note/backend-go/internal/database/repository"
	googleauth "github.com/illusion-note/backend-go/internal/google"
)

// IdentityVerifier validates an externally issued identity assertion and
// returns the verified claim set. Satisfied by google.Verifier.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*googleauth.Claims, error)
}

// AuthService defines the interface for token-based authentication
type AuthService interface {
	GoogleLogin(ctx context.Context, idToken string) (*models.User, *TokenPair, error)
	RefreshToken(refreshToken string) (*models.User, *TokenPair, error)
	Logout(refreshToken string) error
	LogoutAll(userID uuid.UUID) error
	ValidateAccessToken(tokenString string) (*AccessClaims, error)
	CleanupExpiredTokens() (int64, error)
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AccessClaims is the payload of a signed access token. Validity is decided
// by signature and expiry alone, never by a store lookup.
type AccessClaims struct {
	UserID uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Roles  []string  `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claim set carries the given role.
func (c *AccessClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type authService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	verifier         IdentityVerifier
	jwtSecret        string
	cfg              *config.Config
	logger           *slog.Logger
}

// NewAuthService creates a new authentication service instance
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	verifier IdentityVerifier,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		verifier:         verifier,
		jwtSecret:        cfg.JWTSecret,
		cfg:              cfg,
		logger:           logger,
	}
}

// GoogleLogin verifies the Google ID token, finds or creates the user record
// and issues a fresh token pair. Issuing the refresh token deactivates any
// previously active one for the user.
func (s *authService) GoogleLogin(ctx context.Context, idToken string) (*models.User, *TokenPair, error) {
	s.logger.Info("🔐 [AuthService] Google login attempt")

	verifyCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.GoogleVerifyTimeout)*time.Second)
	defer cancel()

	claims, err := s.verifier.Verify(verifyCtx, idToken)
	if err != nil {
		s.logger.Warn("⚠️ [AuthService] ID token verification failed", "error", err)
		return nil, nil, err
	}

	user, err := s.findOrCreateUser(claims)
	if err != nil {
		s.logger.Error("❌ [AuthService] User lookup failed", "email", claims.Email, "error", err)
		return nil, nil, err
	}

	tokens, err := s.issueTokenPair(user, 0)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to issue tokens", "user_id", user.ID, "error", err)
		return nil, nil, err
	}

	s.logger.Info("✅ [AuthService] User logged in", "user_id", user.ID, "email", user.Email)
	return user, tokens, nil
}

// findOrCreateUser maps verified identity claims to a durable user record.
// Email is the sole join key: found users get their last_login touched, a
// miss triggers the create branch.
func (s *authService) findOrCreateUser(claims *googleauth.Claims) (*models.User, error) {
	now := time.Now()

	user, err := s.userRepo.FindByEmail(claims.Email)
	if err == nil {
		if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
			return nil, err
		}
		user.LastLogin = now
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user = &models.User{
		Name:       claims.Name,
		Email:      claims.Email,
		Picture:    claims.Picture,
		Provider:   "google",
		ProviderID: claims.Subject,
		Roles:      pq.StringArray{"user"},
		CreatedAt:  now,
		LastLogin:  now,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	s.logger.Info("📝 [AuthService] New user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// RefreshToken exchanges a valid refresh token for a new pair, rotating the
// presented token. A token that lost a rotation race reads as invalid.
func (s *authService) RefreshToken(refreshToken string) (*models.User, *TokenPair, error) {
	s.logger.Info("🔄 [AuthService] Token refresh attempt")

	stored, err := s.refreshTokenRepo.FindByToken(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTokenNotFound):
			s.logger.Warn("⚠️ [AuthService] Invalid refresh token")
			return nil, nil, ErrInvalidRefreshToken
		case errors.Is(err, repository.ErrTokenExpired):
			s.logger.Warn("⚠️ [AuthService] Expired refresh token")
			return nil, nil, ErrRefreshTokenExpired
		default:
			s.logger.Error("❌ [AuthService] Refresh token lookup failed", "error", err)
			return nil, nil, err
		}
	}

	user := &stored.User

	tokens, err := s.issueTokenPair(user, stored.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			// Another refresh consumed this token first.
			s.logger.Warn("⚠️ [AuthService] Refresh token lost rotation race", "user_id", user.ID)
			return nil, nil, ErrInvalidRefreshToken
		}
		s.logger.Error("❌ [AuthService] Failed to rotate tokens", "user_id", user.ID, "error", err)
		return nil, nil, err
	}

	s.logger.Info("✅ [AuthService] Token refreshed", "user_id", user.ID)
	return user, tokens, nil
}

// Logout revokes a single refresh token. Idempotent: revoking an unknown or
// already revoked token succeeds.
func (s *authService) Logout(refreshToken string) error {
	s.logger.Info("👋 [AuthService] Logout attempt")

	if err := s.refreshTokenRepo.RevokeToken(refreshToken); err != nil {
		s.logger.Error("❌ [AuthService] Failed to revoke token", "error", err)
		return err
	}

	s.logger.Info("✅ [AuthService] User logged out")
	return nil
}

// LogoutAll revokes every active refresh token the user holds.
func (s *authService) LogoutAll(userID uuid.UUID) error {
	s.logger.Info("👋 [AuthService] Logout-all attempt", "user_id", userID)

	if err := s.refreshTokenRepo.RevokeAllUserTokens(userID); err != nil {
		s.logger.Error("❌ [AuthService] Failed to revoke all tokens", "user_id", userID, "error", err)
		return err
	}

	s.logger.Info("✅ [AuthService] All sessions revoked", "user_id", userID)
	return nil
}

// ValidateAccessToken verifies signature and expiry of an access token and
// returns its claims. Expired and invalid are distinct so clients know
// whether a refresh is worth attempting.
func (s *authService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, ErrInvalidAccessToken
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// CleanupExpiredTokens sweeps expired-but-active refresh tokens. Hygiene
// only: FindByToken performs its own just-in-time expiry check.
func (s *authService) CleanupExpiredTokens() (int64, error) {
	swept, err := s.refreshTokenRepo.RevokeExpiredTokens()
	if err != nil {
		s.logger.Error("❌ [AuthService] Expired token sweep failed", "error", err)
		return 0, err
	}

	if swept > 0 {
		s.logger.Info("🧹 [AuthService] Swept expired refresh tokens", "count", swept)
	}
	return swept, nil
}

// issueTokenPair mints an access token and persists a new refresh token.
// consumedID > 0 means a refresh: the presented row is consumed with a
// conditional update inside the rotation transaction. consumedID == 0 means
// a login: all prior active rows are simply replaced.
func (s *authService) issueTokenPair(user *models.User, consumedID uint) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	tokenValue, err := generateRefreshTokenValue()
	if err != nil {
		return nil, err
	}

	refreshToken := &models.RefreshToken{
		UserID:    user.ID,
		Token:     tokenValue,
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.RefreshTokenExpiration) * time.Second),
		IsActive:  true,
	}

	if consumedID > 0 {
		err = s.refreshTokenRepo.Rotate(consumedID, refreshToken)
	} else {
		err = s.refreshTokenRepo.Replace(user.ID, refreshToken)
	}
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: tokenValue,
		ExpiresIn:    s.cfg.AccessTokenExpiration,
	}, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.AccessTokenExpiration) * time.Second)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// generateRefreshTokenValue returns 512 bits of cryptographic randomness as
// hex. The value is opaque: it is looked up verbatim, never parsed.
func generateRefreshTokenValue() (string, error) {
	tokenBytes := make([]byte, 64)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

// Service errors
var (
	ErrInvalidRefreshToken = errors.New("invalid or revoked refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrAccessTokenExpired  = errors.New("access token expired")
)
