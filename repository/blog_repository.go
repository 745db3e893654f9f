package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/pressdesk/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var blogUpsertColumns = []string{
	"account_id", "name", "url", "visible", "block_editor_enabled", "updated_at",
}

// BlogRepository handles database operations for Blog entities
type BlogRepository struct {
	DB *gorm.DB
}

// NewBlogRepository creates a new instance of BlogRepository
func NewBlogRepository(db *gorm.DB) *BlogRepository {
	return &BlogRepository{DB: db}
}

// Upsert inserts the blog or overwrites the row holding the same site_id
func (r *BlogRepository) Upsert(blog *models.Blog) error {
	now := time.Now().Unix()
	if blog.CreatedAt == 0 {
		blog.CreatedAt = now
	}
	blog.UpdatedAt = now

	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site_id"}},
		DoUpdates: clause.AssignmentColumns(blogUpsertColumns),
	}).Create(blog).Error
	if err != nil {
		return fmt.Errorf("failed to upsert blog for site %d: %w", blog.SiteID, err)
	}

	stored, err := r.GetBySiteID(blog.SiteID)
	if err != nil {
		return fmt.Errorf("failed to reload upserted blog for site %d: %w", blog.SiteID, err)
	}
	blog.ID = stored.ID
	blog.CreatedAt = stored.CreatedAt
	return nil
}

// GetByID retrieves a blog by its row ID
func (r *BlogRepository) GetByID(id uint) (*models.Blog, error) {
	var blog models.Blog
	err := r.DB.First(&blog, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get blog by ID %d: %w", id, err)
	}
	return &blog, nil
}

// GetBySiteID retrieves a blog by its remote site ID
func (r *BlogRepository) GetBySiteID(siteID int64) (*models.Blog, error) {
	var blog models.Blog
	err := r.DB.Where("site_id = ?", siteID).First(&blog).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get blog by site ID %d: %w", siteID, err)
	}
	return &blog, nil
}

// ListVisibleByAccount retrieves the visible blogs of an account ordered by name
func (r *BlogRepository) ListVisibleByAccount(accountID int64) ([]models.Blog, error) {
	var blogs []models.Blog
	err := r.DB.Where("account_id = ? AND visible = ?", accountID, true).Order("name ASC").Find(&blogs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs for account %d: %w", accountID, err)
	}
	return blogs, nil
}
