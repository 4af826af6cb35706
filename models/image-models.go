package models

import (
	"time"
)

type Image struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Filename      string    `json:"filename" gorm:"not null"`
	OriginalPath  string    `json:"original_path" gorm:"not null"`
	ThumbnailPath string    `json:"thumbnail_path" gorm:"not null"`
	UploadedAt    time.Time `json:"uploaded_at" gorm:"not null;index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	User     User           `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Metadata *ImageMetadata `json:"-" gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
}
