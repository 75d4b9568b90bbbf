package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordingMode string

const (
	ModeMeeting       RecordingMode = "meeting"
	ModeBrainstorming RecordingMode = "brainstorming"
)

type RecordingStatus string

const (
	StatusQueued     RecordingStatus = "queued"
	StatusProcessing RecordingStatus = "processing"
	StatusCompleted  RecordingStatus = "completed"
	StatusFailed     RecordingStatus = "failed"
)

type Recording struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Profile     Profile         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Mode        RecordingMode   `gorm:"type:varchar(20);not null;default:'meeting'" json:"mode"`
	StoragePath string          `gorm:"type:text;not null" json:"storage_path"`
	FileSize    int64           `gorm:"not null;default:0" json:"file_size"`
	Duration    int             `gorm:"not null;default:0" json:"duration"` // seconds
	Status      RecordingStatus `gorm:"type:varchar(20);not null;default:'queued'" json:"status"`
	// Progress is monotonically non-decreasing within one pipeline run.
	Progress  int       `gorm:"column:processing_progress;not null;default:0" json:"processing_progress"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Recording) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
