package models

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "publish"
)

// Post represents a post (usually a local draft) in the database using GORM.
// It corresponds to the 'posts' table.
type Post struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	BlogID          uint   `gorm:"not null;index" json:"blog_id"`
	Title           string `gorm:"" json:"title"`
	Content         string `gorm:"" json:"content"`
	Status          string `gorm:"not null;default:draft" json:"status"`
	FeaturedImageID *uint  `gorm:"" json:"featured_image_id,omitempty"` // Nullable, references media.id
	CreatedAt       int64  `gorm:"not null" json:"created_at"`
	UpdatedAt       int64  `gorm:"not null" json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (Post) TableName() string {
	return "posts"
}
