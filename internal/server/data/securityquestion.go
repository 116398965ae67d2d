package data

import (
	"gorm.io/gorm"

	"github.com/creativechannel/denizen/internal/server/models"
)

func ByProfileID(profileID uint) SelectorFunc {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("profile_id = ?", profileID)
	}
}

func ByQuestionID(questionID string) SelectorFunc {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("question_id = ?", questionID)
	}
}

func CreateSecurityQuestion(db *gorm.DB, question *models.SecurityQuestion) error {
	return add(db, question)
}

// GetSecurityQuestion returns internal.ErrNotFound when the profile has no
// question with the id.
func GetSecurityQuestion(db *gorm.DB, selectors ...SelectorFunc) (*models.SecurityQuestion, error) {
	return get[models.SecurityQuestion](db, selectors...)
}
