package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageLog is an append-only audit trail, one row per completed pipeline run.
type UsageLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ResourceType  string    `gorm:"size:50;not null;default:'transcription'" json:"resource_type"`
	UnitsConsumed int       `gorm:"not null;default:0" json:"units_consumed"`
	RecordingID   uuid.UUID `gorm:"type:uuid;not null" json:"recording_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *UsageLog) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
