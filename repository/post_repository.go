package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/pressdesk/models"
	"gorm.io/gorm"
)

// PostRepository handles database operations for Post entities
type PostRepository struct {
	DB *gorm.DB
}

// NewPostRepository creates a new instance of PostRepository
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{DB: db}
}

// Create creates a new post record in the database
func (r *PostRepository) Create(post *models.Post) error {
	now := time.Now().Unix()
	if post.CreatedAt == 0 {
		post.CreatedAt = now
	}
	if post.UpdatedAt == 0 {
		post.UpdatedAt = now
	}
	if post.Status == "" {
		post.Status = models.PostStatusDraft
	}
	if err := r.DB.Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post for blog %d: %w", post.BlogID, err)
	}
	return nil
}

// GetByID retrieves a post by its ID
func (r *PostRepository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.DB.First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get post by ID %d: %w", id, err)
	}
	return &post, nil
}

// Update writes title, content, status and featured image of an existing post
func (r *PostRepository) Update(post *models.Post) error {
	post.UpdatedAt = time.Now().Unix()
	result := r.DB.Model(&models.Post{ID: post.ID}).Select("Title", "Content", "Status", "FeaturedImageID", "UpdatedAt").Updates(post)
	if result.Error != nil {
		return fmt.Errorf("failed to update post ID %d: %w", post.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
