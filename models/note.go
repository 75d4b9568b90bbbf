package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Note struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Profile     Profile         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	RecordingID uuid.UUID       `gorm:"type:uuid;not null;index" json:"recording_id"`
	Recording   Recording       `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Slug        string          `gorm:"size:255" json:"slug"`
	Content     string          `gorm:"type:text" json:"content"` // cleaned transcript
	Summary     string          `gorm:"type:text" json:"summary"`
	Mode        RecordingMode   `gorm:"type:varchar(20);not null" json:"mode"`
	Structure   json.RawMessage `gorm:"type:jsonb" json:"structure"`
	Embedding   []float32       `gorm:"serializer:json" json:"-"` // brainstorming only
	FolderID    *uuid.UUID      `gorm:"type:uuid" json:"folder_id"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Tags []Tag `gorm:"many2many:note_tags" json:"tags"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
