package repository

import (
	"github.com/camden-git/pressdesk/models"
)

// PersonRepositoryInterface defines the methods for the people cache
type PersonRepositoryInterface interface {
	Upsert(person *models.Person) error
	GetBySiteAndUser(siteID, userID int64, kind int16) (*models.Person, error)
	ListBySite(siteID int64, kind *int16) ([]models.Person, error)
	DeleteMissing(siteID int64, kind int16, keepUserIDs []int64) (int64, error)
	DeleteBySite(siteID int64) (int64, error)
}

// BlogRepositoryInterface defines the methods for blog data operations
type BlogRepositoryInterface interface {
	Upsert(blog *models.Blog) error
	GetByID(id uint) (*models.Blog, error)
	GetBySiteID(siteID int64) (*models.Blog, error)
	ListVisibleByAccount(accountID int64) ([]models.Blog, error)
}

// PostRepositoryInterface defines the methods for post data operations
type PostRepositoryInterface interface {
	Create(post *models.Post) error
	GetByID(id uint) (*models.Post, error)
	Update(post *models.Post) error
}

// MediaRepositoryInterface defines the methods for media data operations
type MediaRepositoryInterface interface {
	Create(media *models.Media) error
	GetByID(id uint) (*models.Media, error)
	ListByPost(postID uint) ([]models.Media, error)
}
