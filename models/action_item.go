package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionItemPriority string

const (
	PriorityLow    ActionItemPriority = "low"
	PriorityMedium ActionItemPriority = "medium"
	PriorityHigh   ActionItemPriority = "high"
	PriorityUrgent ActionItemPriority = "urgent"
)

type ActionItemStatus string

const (
	ActionPending    ActionItemStatus = "pending"
	ActionInProgress ActionItemStatus = "in_progress"
	ActionCompleted  ActionItemStatus = "completed"
	ActionCanceled   ActionItemStatus = "canceled"
)

type ActionItem struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	NoteID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"note_id"`
	Note        Note               `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	RecordingID uuid.UUID          `gorm:"type:uuid;not null" json:"recording_id"`
	UserID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string             `gorm:"size:255;not null" json:"title"`
	Description string             `gorm:"type:text" json:"description"`
	Assignee    string             `gorm:"size:150" json:"assignee"`
	DueDate     *time.Time         `json:"due_date"`
	Priority    ActionItemPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Status      ActionItemStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Type        string             `gorm:"size:50" json:"type"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *ActionItem) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
