package data

import (
	"gorm.io/gorm"

	"github.com/creativechannel/denizen/internal/server/models"
)

func ByUsername(username string) SelectorFunc {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("username = ?", username)
	}
}

func ByUUID(uuid string) SelectorFunc {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("uuid = ?", uuid)
	}
}

func CreateProfile(db *gorm.DB, profile *models.Profile) error {
	return add(db, profile)
}

// GetProfile returns internal.ErrNotFound when no profile matches, which the
// response layer translates to 404 with an empty body.
func GetProfile(db *gorm.DB, selectors ...SelectorFunc) (*models.Profile, error) {
	return get[models.Profile](db, selectors...)
}

func ListProfiles(db *gorm.DB, p *Pagination, selectors ...SelectorFunc) ([]models.Profile, error) {
	return list[models.Profile](db, p, selectors...)
}

func SaveProfile(db *gorm.DB, profile *models.Profile) error {
	return save(db, profile)
}

func DeleteProfile(db *gorm.DB, username string) error {
	return deleteAll[models.Profile](db, ByUsername(username))
}
