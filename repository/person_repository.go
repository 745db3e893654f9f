package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/pressdesk/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PersonRepository handles database operations for the cached Person rows
type PersonRepository struct {
	DB *gorm.DB
}

// columns overwritten when an upsert hits an existing (site_id, user_id, kind)
var personUpsertColumns = []string{
	"linked_user_id", "username", "first_name", "last_name", "display_name",
	"role", "avatar_url", "is_super_admin", "updated_at",
}

// NewPersonRepository creates a new instance of PersonRepository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

// Upsert inserts the person or overwrites the row with the same
// (site_id, user_id, kind). Row identity comes from that triple, so any ID
// on the argument is ignored; person.ID is filled in from the stored row.
func (r *PersonRepository) Upsert(person *models.Person) error {
	person.ID = 0
	now := time.Now().Unix()
	if person.CreatedAt == 0 {
		person.CreatedAt = now
	}
	person.UpdatedAt = now

	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site_id"}, {Name: "user_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns(personUpsertColumns),
	}).Create(person).Error
	if err != nil {
		return fmt.Errorf("failed to upsert person %d on site %d: %w", person.UserID, person.SiteID, err)
	}

	// the upsert may have updated an existing row, so read back its identity
	stored, err := r.GetBySiteAndUser(person.SiteID, person.UserID, person.Kind)
	if err != nil {
		return fmt.Errorf("failed to reload upserted person %d: %w", person.UserID, err)
	}
	person.ID = stored.ID
	person.CreatedAt = stored.CreatedAt
	return nil
}

// GetBySiteAndUser retrieves one cached person
func (r *PersonRepository) GetBySiteAndUser(siteID, userID int64, kind int16) (*models.Person, error) {
	var person models.Person
	err := r.DB.Where("site_id = ? AND user_id = ? AND kind = ?", siteID, userID, kind).First(&person).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get person %d on site %d: %w", userID, siteID, err)
	}
	return &person, nil
}

// ListBySite retrieves the people of a site ordered by display name. A nil
// kind lists every variant.
func (r *PersonRepository) ListBySite(siteID int64, kind *int16) ([]models.Person, error) {
	var people []models.Person
	q := r.DB.Where("site_id = ?", siteID)
	if kind != nil {
		q = q.Where("kind = ?", *kind)
	}
	err := q.Order("display_name ASC").Order("user_id ASC").Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list people for site %d: %w", siteID, err)
	}
	return people, nil
}

// DeleteMissing removes cached people of one kind whose user ID is not in
// keepUserIDs. Returns the number of rows removed.
func (r *PersonRepository) DeleteMissing(siteID int64, kind int16, keepUserIDs []int64) (int64, error) {
	q := r.DB.Where("site_id = ? AND kind = ?", siteID, kind)
	if len(keepUserIDs) > 0 {
		q = q.Where("user_id NOT IN ?", keepUserIDs)
	}
	result := q.Delete(&models.Person{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune people for site %d: %w", siteID, result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteBySite invalidates the whole people cache of a site
func (r *PersonRepository) DeleteBySite(siteID int64) (int64, error) {
	result := r.DB.Where("site_id = ?", siteID).Delete(&models.Person{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete people for site %d: %w", siteID, result.Error)
	}
	return result.RowsAffected, nil
}
