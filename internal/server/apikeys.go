package server

import (
	"github.com/gin-gonic/gin"

	"github.com/creativechannel/denizen/api"
	"github.com/creativechannel/denizen/internal/access"
)

func (a *API) GetAPIKey(c *gin.Context, _ *api.EmptyRequest) (*api.APIKey, error) {
	key, err := access.CurrentAPIKey(c)
	if err != nil {
		return nil, err
	}
	return key.ToAPI(), nil
}

func (a *API) UpdateAPIKey(c *gin.Context, r *api.UpdateAPIKeyRequest) (*api.APIKey, error) {
	key, err := access.UpdateCurrentAPIKey(c, r.DisplayName, r.Application)
	if err != nil {
		return nil, err
	}
	return key.ToAPI(), nil
}
