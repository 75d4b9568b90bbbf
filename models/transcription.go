package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Segment carries vendor timing metadata for one chunk of speech.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcription is created once per recording and immutable afterwards.
type Transcription struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecordingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"recording_id"`
	Recording   Recording `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	RawText     string    `gorm:"type:text;not null" json:"raw_text"`
	Segments    []Segment `gorm:"serializer:json" json:"segments"`
	CleanedText string    `gorm:"type:text" json:"cleaned_text"`
	Language    string    `gorm:"size:20" json:"language"`
	WordCount   int       `gorm:"not null;default:0" json:"word_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Transcription) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
