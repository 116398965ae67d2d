// Package access decides whether an authenticated identity may perform an
// operation.
package access

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/creativechannel/denizen/internal/server/authn"
	"github.com/creativechannel/denizen/internal/server/cache"
	"github.com/creativechannel/denizen/internal/server/models"
)

const RequestContextKey = "requestContext"

// RequestContext stores the http.Request and values derived from it, like the
// authenticated API identity. It replaces the ambient request state of the
// legacy gateway: everything a handler needs travels through this struct.
type RequestContext struct {
	Request *http.Request
	DBTxn   *gorm.DB
	Cache   *cache.Cache

	Authenticated Authenticated

	// ActionPath is the request path as it was signed, lower case without the
	// API prefix.
	ActionPath string
	// Method is the effective HTTP method after any override_method was
	// applied. The canonical signed string uses this, not the transport
	// method.
	Method string
	// Nonce is the request nonce after it passed the replay check. The login
	// handler uses it to verify the forwarded userhash.
	Nonce string
	// SessionID is the session parameter as presented, before any session
	// validation happened.
	SessionID string

	// Sessions derives and validates member session ids.
	Sessions *authn.SessionAuthenticator
	// SessionDuration is the TTL applied to newly created member sessions.
	SessionDuration time.Duration
}

// Authenticated stores data about the authenticated caller. A nil APIKey
// means the request did not pass authentication.
type Authenticated struct {
	APIKey  *models.APIKey
	Session *models.Session
}

func GetRequestContext(c *gin.Context) RequestContext {
	raw, ok := c.Get(RequestContextKey)
	if !ok {
		return RequestContext{}
	}
	rCtx, ok := raw.(RequestContext)
	if !ok {
		return RequestContext{}
	}
	return rCtx
}
