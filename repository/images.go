package repository

import (
	"context"
	"errors"

	"github.com/aljonleynes11/media-coding-exam-backend/models"
	"gorm.io/gorm"
)

type Images struct {
	db *gorm.DB
}

func NewImages(db *gorm.DB) *Images {
	return &Images{db: db}
}

func (r *Images) Create(ctx context.Context, image *models.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *Images) FindByID(ctx context.Context, id uint) (*models.Image, error) {
	var image models.Image
	if err := r.db.WithContext(ctx).First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &image, nil
}

// ListByUser returns one page of the user's images, newest upload first.
func (r *Images) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Image, error) {
	var images []models.Image
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&images).Error
	return images, err
}
