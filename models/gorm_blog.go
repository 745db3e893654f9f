package models

// Blog is a site the signed-in account can post to. BlockEditorEnabled selects
// block markup over classic HTML when new content is generated for it.
// It corresponds to the 'blogs' table.
type Blog struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID          int64  `gorm:"not null;index" json:"account_id"`
	SiteID             int64  `gorm:"not null;uniqueIndex" json:"site_id"`
	Name               string `gorm:"not null" json:"name"`
	URL                string `gorm:"not null" json:"url"`
	Visible            bool   `gorm:"not null" json:"visible"`
	BlockEditorEnabled bool   `gorm:"not null" json:"block_editor_enabled"`
	CreatedAt          int64  `gorm:"not null" json:"created_at"`
	UpdatedAt          int64  `gorm:"not null" json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (Blog) TableName() string {
	return "blogs"
}
