package models

// Media is a file stored locally and attached to a blog, optionally to a post.
// It corresponds to the 'media' table.
type Media struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	BlogID    uint   `gorm:"not null;index" json:"blog_id"`
	PostID    *uint  `gorm:"index" json:"post_id,omitempty"` // Nullable
	Filename  string `gorm:"not null" json:"filename"`
	LocalPath string `gorm:"not null" json:"local_path"` // relative to MEDIA_STORAGE_PATH
	MimeType  string `gorm:"not null" json:"mime_type"`
	Width     int    `gorm:"" json:"width"`
	Height    int    `gorm:"" json:"height"`
	RemoteURL string `gorm:"" json:"remote_url,omitempty"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (Media) TableName() string {
	return "media"
}
