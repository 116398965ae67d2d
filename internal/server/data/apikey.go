package data

import (
	"strings"

	"gorm.io/gorm"

	"github.com/creativechannel/denizen/internal/server/models"
)

func ByPublicKey(publicKey string) SelectorFunc {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("public_key = ?", strings.ToLower(publicKey))
	}
}

func CreateAPIKey(db *gorm.DB, key *models.APIKey) error {
	key.PublicKey = strings.ToLower(key.PublicKey)
	return add(db, key)
}

// GetAPIKey resolves an API identity by its public key. Returns
// internal.ErrNotFound when no identity matches.
func GetAPIKey(db *gorm.DB, selectors ...SelectorFunc) (*models.APIKey, error) {
	return get[models.APIKey](db, selectors...)
}

func ListAPIKeys(db *gorm.DB, p *Pagination, selectors ...SelectorFunc) ([]models.APIKey, error) {
	return list[models.APIKey](db, p, selectors...)
}

func SaveAPIKey(db *gorm.DB, key *models.APIKey) error {
	key.PublicKey = strings.ToLower(key.PublicKey)
	return save(db, key)
}

// APIKeyInGroup reports whether the key identified by publicKey belongs to
// group. An unresolvable key is never a member of any group.
func APIKeyInGroup(db *gorm.DB, publicKey, group string) (bool, error) {
	key, err := GetAPIKey(db, ByPublicKey(publicKey))
	if err != nil {
		return false, err
	}
	return key.Groups.Includes(group), nil
}
