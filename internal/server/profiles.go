package server

import (
	"github.com/gin-gonic/gin"

	"github.com/creativechannel/denizen/api"
	"github.com/creativechannel/denizen/internal/access"
	"github.com/creativechannel/denizen/internal/server/models"
)

func (a *API) GetProfile(c *gin.Context, r *api.GetProfileRequest) (*api.Profile, error) {
	profile, err := access.GetProfile(c, r.Username)
	if err != nil {
		return nil, err
	}
	return profile.ToAPI(), nil
}

func (a *API) ListProfiles(c *gin.Context, r *api.ListProfilesRequest) (api.Response, error) {
	p := paginationFromRequest(r.PaginationRequest)

	profiles, err := access.ListProfiles(c, &p)
	if err != nil {
		return api.Response{}, err
	}

	result := make([]*api.Profile, 0, len(profiles))
	for i := range profiles {
		result = append(result, profiles[i].ToAPI())
	}
	return api.SuccessPage(result, paginationToResponse(p)), nil
}

func (a *API) CreateProfile(c *gin.Context, r *api.CreateProfileRequest) (*api.Profile, error) {
	profile := &models.Profile{
		Username:     r.Username,
		DisplayName:  r.DisplayName,
		Email:        r.Email,
		Password:     r.Password,
		Applications: models.CommaSeparatedStrings(r.Applications),
	}

	if err := access.CreateProfile(c, profile); err != nil {
		return nil, err
	}
	return profile.ToAPI(), nil
}

func (a *API) UpdateProfile(c *gin.Context, r *api.UpdateProfileRequest) (*api.Profile, error) {
	profile, err := access.GetProfile(c, r.Username)
	if err != nil {
		return nil, err
	}

	profile.DisplayName = r.DisplayName
	profile.Email = r.Email
	profile.Applications = models.CommaSeparatedStrings(r.Applications)
	if r.Locked != nil {
		profile.Locked = *r.Locked
	}

	if err := access.UpdateProfile(c, profile); err != nil {
		return nil, err
	}
	return profile.ToAPI(), nil
}

func (a *API) DeleteProfile(c *gin.Context, r *api.DeleteProfileRequest) error {
	return access.DeleteProfile(c, r.Username)
}
