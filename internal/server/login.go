package server

import (
	"github.com/gin-gonic/gin"

	"github.com/creativechannel/denizen/api"
	"github.com/creativechannel/denizen/internal/access"
)

func (a *API) Login(c *gin.Context, r *api.LoginRequest) (*api.LoginResponse, error) {
	session, profile, err := access.Login(c, r.Username, r.Userhash)
	if err != nil {
		return nil, err
	}

	return &api.LoginResponse{
		Session:     session.ID,
		ProfileUUID: profile.UUID,
	}, nil
}

func (a *API) ForceLogin(c *gin.Context, r *api.ForceLoginRequest) (*api.LoginResponse, error) {
	session, profile, err := access.ForceLogin(c, r.Username)
	if err != nil {
		return nil, err
	}

	return &api.LoginResponse{
		Session:     session.ID,
		ProfileUUID: profile.UUID,
	}, nil
}

func (a *API) AuthSecurityQuestion(c *gin.Context, r *api.SecurityQuestionRequest) (*api.AuthorizedResponse, error) {
	err := access.AuthSecurityQuestion(c, r.Username, r.Question, r.Answerhash)
	if err != nil {
		return nil, err
	}
	return &api.AuthorizedResponse{IsAuthorized: true}, nil
}

func (a *API) Logout(c *gin.Context, _ *api.EmptyRequest) error {
	return access.Logout(c)
}
