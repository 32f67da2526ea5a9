package models

import (
	"time"

	"github.com/google/uuid"
)

// EmotionEntry stores one analyzed diary entry: the user's text, the detected
// emotion and the generated reply.
type EmotionEntry struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Text         string    `gorm:"not null" json:"text"`
	Emotion      string    `gorm:"not null" json:"emotion"`
	Response     string    `gorm:"not null" json:"response"`
	AnalyzeText  string    `json:"analyze_text,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Title        string    `json:"title,omitempty"`
	ResponseType string    `gorm:"default:comfort" json:"response_type"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	User         User      `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name
func (EmotionEntry) TableName() string {
	return "emotion_entries"
}
