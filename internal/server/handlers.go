package server

import (
	"github.com/gin-gonic/gin"

	"github.com/creativechannel/denizen/api"
	"github.com/creativechannel/denizen/internal/access"
)

// API contains the handlers for the REST endpoints. Handlers validate input,
// call into the access package, and translate models into response types.
type API struct {
	server *Server
}

// The authtest handlers exercise each authorization layer in isolation, so
// deployed agents can verify their signing and session handling end to end.

func (a *API) AuthTestPublic(c *gin.Context, _ *api.EmptyRequest) (*api.Message, error) {
	return &api.Message{Message: "public endpoint reached"}, nil
}

func (a *API) AuthTest(c *gin.Context, _ *api.EmptyRequest) (*api.Message, error) {
	rCtx := access.GetRequestContext(c)
	return &api.Message{Message: "authenticated as " + rCtx.Authenticated.APIKey.PublicKey}, nil
}

func (a *API) AuthTestMember(c *gin.Context, _ *api.EmptyRequest) (*api.Message, error) {
	rCtx := access.GetRequestContext(c)
	return &api.Message{Message: "member session for " + rCtx.Authenticated.Session.Username}, nil
}

func (a *API) AuthTestGroupAdmin(c *gin.Context, _ *api.EmptyRequest) (*api.Message, error) {
	rCtx := access.GetRequestContext(c)
	err := access.HandleAuthErr(access.IsAuthorizedGroup(rCtx, access.GroupAdmin), "test group", access.GroupAdmin)
	if err != nil {
		return nil, err
	}
	return &api.Message{Message: "authorized for group " + access.GroupAdmin}, nil
}

// AuthTestGroupInvalid requires membership in a group that is never
// provisioned, so it always responds 403 for a correctly signed request.
func (a *API) AuthTestGroupInvalid(c *gin.Context, _ *api.EmptyRequest) (*api.Message, error) {
	rCtx := access.GetRequestContext(c)
	err := access.HandleAuthErr(access.IsAuthorizedGroup(rCtx, "invalid"), "test group", "invalid")
	if err != nil {
		return nil, err
	}
	return &api.Message{Message: "authorized for group invalid"}, nil
}
