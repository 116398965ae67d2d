package models

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creativechannel/denizen/api"
)

// Profile is a member record in the directory.
type Profile struct {
	Model

	UUID     string `gorm:"uniqueIndex:idx_profiles_uuid,where:deleted_at is NULL"`
	Username string `gorm:"uniqueIndex:idx_profiles_username,where:deleted_at is NULL"`

	DisplayName string
	Email       string

	// Password is the stored bind credential, equivalent to the directory
	// password the member authenticates with.
	Password string

	// Locked profiles fail login with 403 instead of 401.
	Locked bool

	// Applications the profile is registered to use. Logins through an API
	// key bound to an application require membership here.
	Applications CommaSeparatedStrings
}

func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	return nil
}

// VerifyUserhash checks a forwarded userhash against the stored credential.
// The userhash is the hex SHA1 of nonce, username, and password, computed by
// the submitting gateway from the member's plaintext password.
func (p *Profile) VerifyUserhash(nonce, userhash string) bool {
	sum := sha1.Sum([]byte(nonce + p.Username + p.Password))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(userhash)) == 1
}

func (p *Profile) ToAPI() *api.Profile {
	return &api.Profile{
		UUID:         p.UUID,
		Username:     p.Username,
		DisplayName:  p.DisplayName,
		Email:        p.Email,
		Locked:       p.Locked,
		Applications: p.Applications,
		Created:      p.CreatedAt,
		Updated:      p.UpdatedAt,
	}
}
