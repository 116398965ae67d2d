package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/creativechannel/denizen/internal"
	"github.com/creativechannel/denizen/internal/access"
	"github.com/creativechannel/denizen/internal/logging"
	"github.com/creativechannel/denizen/internal/server/authn"
	"github.com/creativechannel/denizen/metrics"
)

// TimeoutMiddleware adds a timeout to the request context within the Gin
// context. To correctly abort long-running requests, this depends on the
// users of the context to stop working when the context cancels.
// Note: The goroutine for the request is never halted; it is up to the users
// of the context to watch for c.Request.Context().Err() or
// <-c.Request.Context().Done()
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// DatabaseMiddleware injects a `db` object into the Gin context.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			c.Set("db", tx)
			c.Next()
			return nil
		})
		if err != nil {
			logging.Debugf(err.Error())
		}
	}
}

func getDB(c *gin.Context) *gorm.DB {
	db, ok := c.MustGet("db").(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}

// authenticatedMiddleware is applied to every route that requires a signed
// request. It evaluates the authentication pipeline and stores the resolved
// API identity together with the signed parameters in the request context.
func authenticatedMiddleware(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		// auth parameters may arrive in an urlencoded body instead of the
		// query string, make sure the form is parsed before reading them
		if strings.HasPrefix(c.ContentType(), "application/x-www-form-urlencoded") {
			if err := c.Request.ParseForm(); err != nil {
				sendAPIError(c, internal.ErrBadRequest)
				return
			}
		}

		params := authn.ParseSignedParams(c.Request)

		authenticator := &authn.Authenticator{
			DB:     getDB(c),
			Nonces: srv.nonces,
			Cache:  srv.cache,
		}

		key, err := authenticator.Authenticate(c.Request.Context(), params)
		if err != nil {
			metrics.RecordAuthentication(authnOutcome(err))
			sendAPIError(c, err)
			return
		}
		metrics.RecordAuthentication("success")

		rCtx := access.RequestContext{
			Request:         c.Request,
			DBTxn:           getDB(c),
			Cache:           srv.cache,
			Authenticated:   access.Authenticated{APIKey: key},
			ActionPath:      params.ActionPath,
			Method:          params.Method,
			Nonce:           params.Nonce,
			SessionID:       params.Session,
			Sessions:        srv.sessions,
			SessionDuration: srv.options.SessionDuration,
		}
		c.Set(access.RequestContextKey, rCtx)
		c.Next()
	}
}

func authnOutcome(err error) string {
	switch {
	case errors.Is(err, authn.ErrReplayDetected):
		return "replay"
	case errors.Is(err, internal.ErrUpstream):
		return "upstream"
	default:
		return "unauthorized"
	}
}

// memberSessionMiddleware is applied after authenticatedMiddleware to routes
// that additionally require an authenticated member session.
func memberSessionMiddleware(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		rCtx := access.GetRequestContext(c)

		session, err := srv.sessions.Authenticate(c.Request.Context(), c.Request, authn.SignedParams{
			Session:    rCtx.SessionID,
			ActionPath: rCtx.ActionPath,
		}, rCtx.Authenticated.APIKey)
		if err != nil {
			sendAPIError(c, err)
			return
		}

		rCtx.Authenticated.Session = session
		c.Set(access.RequestContextKey, rCtx)
		c.Next()
	}
}

// unauthenticatedMiddleware is applied to public routes so handlers can still
// reach the database and the cache through the request context.
func unauthenticatedMiddleware(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		rCtx := access.RequestContext{
			Request: c.Request,
			DBTxn:   getDB(c),
			Cache:   srv.cache,
		}
		c.Set(access.RequestContextKey, rCtx)
		c.Next()
	}
}
