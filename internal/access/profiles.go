package access

import (
	"github.com/gin-gonic/gin"

	"github.com/creativechannel/denizen/internal/server/data"
	"github.com/creativechannel/denizen/internal/server/models"
)

// GroupAdmin is the capability group required to change the profile
// directory.
const GroupAdmin = "admin"

func GetProfile(c *gin.Context, username string) (*models.Profile, error) {
	rCtx := GetRequestContext(c)
	return data.GetProfile(rCtx.DBTxn, data.ByUsername(username))
}

func ListProfiles(c *gin.Context, p *data.Pagination) ([]models.Profile, error) {
	rCtx := GetRequestContext(c)

	err := HandleAuthErr(IsAuthorizedGroup(rCtx, GroupAdmin), "list profiles", GroupAdmin)
	if err != nil {
		return nil, err
	}

	return data.ListProfiles(rCtx.DBTxn, p)
}

func CreateProfile(c *gin.Context, profile *models.Profile) error {
	rCtx := GetRequestContext(c)

	err := HandleAuthErr(IsAuthorizedGroup(rCtx, GroupAdmin), "create profile", GroupAdmin)
	if err != nil {
		return err
	}

	return data.CreateProfile(rCtx.DBTxn, profile)
}

func UpdateProfile(c *gin.Context, profile *models.Profile) error {
	rCtx := GetRequestContext(c)

	err := HandleAuthErr(IsAuthorizedGroup(rCtx, GroupAdmin), "update profile", GroupAdmin)
	if err != nil {
		return err
	}

	return data.SaveProfile(rCtx.DBTxn, profile)
}

func DeleteProfile(c *gin.Context, username string) error {
	rCtx := GetRequestContext(c)

	err := HandleAuthErr(IsAuthorizedGroup(rCtx, GroupAdmin), "delete profile", GroupAdmin)
	if err != nil {
		return err
	}

	// resolve first so a missing profile is a 404, not a silent no-op
	if _, err := data.GetProfile(rCtx.DBTxn, data.ByUsername(username)); err != nil {
		return err
	}

	return data.DeleteProfile(rCtx.DBTxn, username)
}
