package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/pressdesk/models"
	"gorm.io/gorm"
)

// MediaRepository handles database operations for Media entities
type MediaRepository struct {
	DB *gorm.DB
}

// NewMediaRepository creates a new instance of MediaRepository
func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{DB: db}
}

// Create creates a new media record in the database
func (r *MediaRepository) Create(media *models.Media) error {
	if media.CreatedAt == 0 {
		media.CreatedAt = time.Now().Unix()
	}
	if err := r.DB.Create(media).Error; err != nil {
		return fmt.Errorf("failed to create media %s: %w", media.Filename, err)
	}
	return nil
}

// GetByID retrieves a media item by its ID
func (r *MediaRepository) GetByID(id uint) (*models.Media, error) {
	var media models.Media
	err := r.DB.First(&media, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get media by ID %d: %w", id, err)
	}
	return &media, nil
}

// ListByPost retrieves the media attached to a post
func (r *MediaRepository) ListByPost(postID uint) ([]models.Media, error) {
	var media []models.Media
	err := r.DB.Where("post_id = ?", postID).Order("id ASC").Find(&media).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list media for post %d: %w", postID, err)
	}
	return media, nil
}
