package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/illusion-note/backend-go/internal/database/models"
)

// RefreshTokenRepository defines the interface for refresh token operations.
// Tokens are revoked in place and never deleted.
type RefreshTokenRepository interface {
	FindByToken(token string) (*models.RefreshToken, error)
	Replace(userID uuid.UUID, newToken *models.RefreshToken) error
	Rotate(consumedID uint, newToken *models.RefreshToken) error
	RevokeToken(token string) error
	RevokeAllUserTokens(userID uuid.UUID) error
	RevokeExpiredTokens() (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository instance
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// FindByToken looks up an active token row joined to its owning user.
// A revoked token and a token that never existed produce the same
// ErrTokenNotFound, so callers cannot probe which tokens were issued.
// An expired row is revoked on the spot and reported as ErrTokenExpired.
func (r *refreshTokenRepository) FindByToken(token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	err := r.db.Where("token = ? AND is_active = ?", token, true).
		Preload("User").
		First(&refreshToken).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if refreshToken.Expired(time.Now()) {
		if err := r.revokeByID(r.db, refreshToken.ID); err != nil {
			return nil, err
		}
		return nil, ErrTokenExpired
	}

	return &refreshToken, nil
}

// Replace deactivates every active token the user holds and inserts the new
// one in a single transaction. Used on login, where no prior token is
// presented.
func (r *refreshTokenRepository) Replace(userID uuid.UUID, newToken *models.RefreshToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.revokeAllActive(tx, userID); err != nil {
			return err
		}
		return tx.Create(newToken).Error
	})
}

// Rotate consumes the presented token and replaces it. The consume is a
// conditional single-statement update on is_active, so of two refreshes
// racing over the same token exactly one wins; the loser gets
// ErrTokenNotFound. The remaining deactivate-and-insert runs in the same
// transaction, keeping the one-active-token-per-user invariant crash safe.
func (r *refreshTokenRepository) Rotate(consumedID uint, newToken *models.RefreshToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND is_active = ?", consumedID, true).
			Updates(map[string]interface{}{"is_active": false, "revoked_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTokenNotFound
		}

		if err := r.revokeAllActive(tx, newToken.UserID); err != nil {
			return err
		}
		return tx.Create(newToken).Error
	})
}

// RevokeToken deactivates a single token. Idempotent: revoking an already
// revoked or unknown token is treated as success so logout can always be
// retried.
func (r *refreshTokenRepository) RevokeToken(token string) error {
	return r.db.Model(&models.RefreshToken{}).
		Where("token = ? AND is_active = ?", token, true).
		Updates(map[string]interface{}{"is_active": false, "revoked_at": time.Now()}).Error
}

// RevokeAllUserTokens deactivates every active token for the user ("log out
// everywhere").
func (r *refreshTokenRepository) RevokeAllUserTokens(userID uuid.UUID) error {
	return r.revokeAllActive(r.db, userID)
}

// RevokeExpiredTokens marks every expired-but-still-active row revoked and
// returns how many rows were swept.
func (r *refreshTokenRepository) RevokeExpiredTokens() (int64, error) {
	result := r.db.Model(&models.RefreshToken{}).
		Where("expires_at < ? AND is_active = ?", time.Now(), true).
		Updates(map[string]interface{}{"is_active": false, "revoked_at": time.Now()})
	return result.RowsAffected, result.Error
}

func (r *refreshTokenRepository) revokeAllActive(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{"is_active": false, "revoked_at": time.Now()}).Error
}

func (r *refreshTokenRepository) revokeByID(tx *gorm.DB, id uint) error {
	return tx.Model(&models.RefreshToken{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{"is_active": false, "revoked_at": time.Now()}).Error
}

// Repository errors
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
)
