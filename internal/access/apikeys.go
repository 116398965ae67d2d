package access

import (
	"github.com/gin-gonic/gin"

	"github.com/creativechannel/denizen/internal/server/data"
	"github.com/creativechannel/denizen/internal/server/models"
)

// CurrentAPIKey returns the directory record for the calling API identity.
// internal.ErrNotFound is returned when the directory no longer has a record,
// which can happen when the key was removed between authentication and the
// lookup.
func CurrentAPIKey(c *gin.Context) (*models.APIKey, error) {
	rCtx := GetRequestContext(c)
	return data.GetAPIKey(rCtx.DBTxn, data.ByPublicKey(rCtx.Authenticated.APIKey.PublicKey))
}

// UpdateCurrentAPIKey saves the mutable attributes of the calling API
// identity. Groups and the key pair itself are provisioned out of band and
// can not be changed here.
func UpdateCurrentAPIKey(c *gin.Context, displayName, application string) (*models.APIKey, error) {
	rCtx := GetRequestContext(c)

	key, err := data.GetAPIKey(rCtx.DBTxn, data.ByPublicKey(rCtx.Authenticated.APIKey.PublicKey))
	if err != nil {
		return nil, err
	}

	key.DisplayName = displayName
	key.Application = application

	if err := data.SaveAPIKey(rCtx.DBTxn, key); err != nil {
		return nil, err
	}
	return key, nil
}
