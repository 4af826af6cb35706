package models

import (
	"time"

	"gorm.io/datatypes"
)

// AI processing states of an ImageMetadata row. Completed and Failed are
// terminal: nothing moves a row out of them automatically.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ImageMetadata is the AI-derived companion of an Image. Content fields stay
// nil until an analysis completes; a nil slice is stored as JSON null.
type ImageMetadata struct {
	ID                 uint                        `json:"id" gorm:"primaryKey"`
	ImageID            uint                        `json:"image_id" gorm:"not null;uniqueIndex"`
	UserID             string                      `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Description        *string                     `json:"description"`
	Tags               datatypes.JSONSlice[string] `json:"tags"`
	Colors             datatypes.JSONSlice[string] `json:"colors"`
	AIProcessingStatus string                      `json:"ai_processing_status" gorm:"column:ai_processing_status;type:varchar(20);not null;default:'processing'"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

func (ImageMetadata) TableName() string {
	return "image_metadata"
}

func (m *ImageMetadata) IsTerminal() bool {
	return m.AIProcessingStatus == StatusCompleted || m.AIProcessingStatus == StatusFailed
}
