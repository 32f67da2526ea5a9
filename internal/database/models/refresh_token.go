package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the persisted half of a token pair. Rows are revoked
// (is_active=false, revoked_at set), never deleted, so rotation history
// stays auditable. At most one row per user may be active at a time.
type RefreshToken struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string     `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
