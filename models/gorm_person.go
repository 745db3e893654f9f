package models

// Person is the cached copy of someone attached to a site: a user, a follower
// or a viewer. Kind is the discriminator; see people.Kind.
// It corresponds to the 'people' table.
type Person struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteID       int64  `gorm:"not null;uniqueIndex:idx_site_user_kind" json:"site_id"`
	UserID       int64  `gorm:"not null;uniqueIndex:idx_site_user_kind" json:"user_id"`
	Kind         int16  `gorm:"not null;uniqueIndex:idx_site_user_kind" json:"kind"`
	LinkedUserID int64  `gorm:"not null" json:"linked_user_id"`
	Username     string `gorm:"not null" json:"username"`
	FirstName    string `gorm:"" json:"first_name"`
	LastName     string `gorm:"" json:"last_name"`
	DisplayName  string `gorm:"" json:"display_name"`
	Role         string `gorm:"not null" json:"role"`
	AvatarURL    string `gorm:"" json:"avatar_url"`
	IsSuperAdmin bool   `gorm:"not null" json:"is_super_admin"`
	CreatedAt    int64  `gorm:"not null" json:"created_at"` // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt    int64  `gorm:"not null" json:"updated_at"` // Stored as INTEGER in SQLite, Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}
