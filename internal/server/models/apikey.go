package models

import (
	"github.com/creativechannel/denizen/api"
)

// APIKey is the credential pair identifying a calling system. Keys are
// provisioned out of band; the REST service reads them but never creates the
// private key itself.
type APIKey struct {
	Model

	// PublicKey is the external identifier presented by the caller in the
	// api_key parameter. Compared case-insensitively, stored lower case.
	PublicKey string `gorm:"uniqueIndex:idx_api_keys_public_key,where:deleted_at is NULL"`
	// PrivateKey signs requests. It is never transmitted.
	PrivateKey string

	DisplayName string
	// Application, when set, restricts member logins through this key to
	// profiles registered for the application.
	Application string
	// Groups are the capability groups the key belongs to, gating privileged
	// actions such as force-login.
	Groups CommaSeparatedStrings
}

func (k *APIKey) ToAPI() *api.APIKey {
	return &api.APIKey{
		PublicKey:   k.PublicKey,
		DisplayName: k.DisplayName,
		Application: k.Application,
		Groups:      k.Groups,
	}
}
