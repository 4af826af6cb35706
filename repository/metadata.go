package repository

import (
	"context"
	"errors"

	"github.com/aljonleynes11/media-coding-exam-backend/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Metadata persists ImageMetadata rows. Writes are plain last-write-wins
// updates keyed by image_id; no version column is used.
type Metadata struct {
	db *gorm.DB
}

func NewMetadata(db *gorm.DB) *Metadata {
	return &Metadata{db: db}
}

// EnsureProcessing finds the row for imageID or creates it with empty content
// and status processing. An existing row is returned untouched.
func (r *Metadata) EnsureProcessing(ctx context.Context, imageID uint, userID string) (*models.ImageMetadata, error) {
	var m models.ImageMetadata
	err := r.db.WithContext(ctx).
		Where(models.ImageMetadata{ImageID: imageID}).
		Attrs(models.ImageMetadata{UserID: userID, AIProcessingStatus: models.StatusProcessing}).
		FirstOrCreate(&m).Error
	if err == nil {
		return &m, nil
	}
	// Lost a creation race against another trigger for the same image.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.FindByImageID(ctx, imageID)
	}
	return nil, err
}

func (r *Metadata) MarkFailed(ctx context.Context, imageID uint) error {
	return r.setStatus(ctx, imageID, map[string]any{
		"ai_processing_status": models.StatusFailed,
	})
}

// Complete writes the analysis content and the completed status in one update.
func (r *Metadata) Complete(ctx context.Context, imageID uint, description string, tags, colors []string) error {
	return r.setStatus(ctx, imageID, map[string]any{
		"description":          description,
		"tags":                 datatypes.NewJSONSlice(nonNil(tags)),
		"colors":               datatypes.NewJSONSlice(nonNil(colors)),
		"ai_processing_status": models.StatusCompleted,
	})
}

func (r *Metadata) setStatus(ctx context.Context, imageID uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.ImageMetadata{}).
		Where("image_id = ?", imageID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Metadata) FindByImageID(ctx context.Context, imageID uint) (*models.ImageMetadata, error) {
	var m models.ImageMetadata
	if err := r.db.WithContext(ctx).Where("image_id = ?", imageID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindByImageIDs returns the rows of the given images keyed by image ID.
// Images without metadata are simply absent from the map.
func (r *Metadata) FindByImageIDs(ctx context.Context, imageIDs []uint) (map[uint]models.ImageMetadata, error) {
	result := make(map[uint]models.ImageMetadata, len(imageIDs))
	if len(imageIDs) == 0 {
		return result, nil
	}
	var rows []models.ImageMetadata
	if err := r.db.WithContext(ctx).Where("image_id IN ?", imageIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		result[m.ImageID] = m
	}
	return result, nil
}

// completed rows always carry non-null lists, even when empty
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
