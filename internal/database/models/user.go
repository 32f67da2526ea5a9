package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User represents an identity record created from a verified Google login.
// Accounts are never deleted by the auth subsystem.
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Picture    string         `json:"picture"`
	Provider   string         `gorm:"not null;default:google" json:"provider"`
	ProviderID string         `gorm:"not null" json:"-"`
	Roles      pq.StringArray `gorm:"type:text[]" json:"roles"`
	CreatedAt  time.Time      `json:"created_at"`
	LastLogin  time.Time      `json:"last_login"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the UUID primary key so the ID is stable across
// database backends.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
