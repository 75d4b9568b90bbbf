package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPro        SubscriptionTier = "pro"
	TierTeam       SubscriptionTier = "team"
	TierEnterprise SubscriptionTier = "enterprise"
)

// WritingStyle drives the transcript cleanup prompt.
type WritingStyle struct {
	Tone      string `json:"tone"`
	Formality string `json:"formality"`
	Verbosity string `json:"verbosity"`
}

// ProfileSettings is the free-form preferences blob stored on the profile.
type ProfileSettings struct {
	WritingStyle  WritingStyle `json:"writing_style"`
	NoteStructure string       `json:"note_structure"`
}

type Profile struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	FullName     string           `gorm:"size:150;not null" json:"full_name"`
	Email        string           `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password     string           `gorm:"type:text;not null" json:"-"`
	Tier         SubscriptionTier `gorm:"type:varchar(20);not null;default:'free'" json:"tier"`
	MinutesUsed  int              `gorm:"not null;default:0" json:"minutes_used"`
	MinutesQuota int              `gorm:"not null;default:0" json:"minutes_quota"`
	Settings     ProfileSettings  `gorm:"serializer:json" json:"settings"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	Recordings []Recording `gorm:"foreignKey:UserID" json:"-"`
	Notes      []Note      `gorm:"foreignKey:UserID" json:"-"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
