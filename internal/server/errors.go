package server

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/creativechannel/denizen/api"
	"github.com/creativechannel/denizen/internal"
	"github.com/creativechannel/denizen/internal/access"
	"github.com/creativechannel/denizen/internal/logging"
	"github.com/creativechannel/denizen/internal/server/data"
	"github.com/creativechannel/denizen/internal/validate"
)

// sendAPIError translates err into the appropriate HTTP status code, builds a
// response body using api.Error, then sends both as a response to the active
// request.
//
// A 404 is sent with an empty body: "no result" responses carry no payload at
// all, not an error envelope.
func sendAPIError(c *gin.Context, err error) {
	resp := &api.Error{
		Code:    http.StatusInternalServerError,
		Message: "internal server error", // don't leak any info by default
	}

	var apiError api.Error
	var validationError validate.Error
	var uniqueConstraintError data.UniqueConstraintError
	var authzError access.AuthorizationError

	log := logging.L.Debug()

	switch {
	case errors.As(err, &apiError):
		// already classified, use the code and message as they are
		resp.Code = apiError.Code
		resp.Message = apiError.Message
		resp.FieldErrors = apiError.FieldErrors

	case errors.Is(err, internal.ErrUnauthorized):
		resp.Code = http.StatusUnauthorized
		// hide the error text, it may reveal which check rejected the request
		resp.Message = "unauthorized"
		// log the error at info because it is not in the response
		log = logging.L.Info()

	case errors.As(err, &authzError):
		resp.Code = http.StatusForbidden
		resp.Message = authzError.Error()

	case errors.Is(err, internal.ErrForbidden):
		resp.Code = http.StatusForbidden
		resp.Message = err.Error()

	case errors.As(err, &uniqueConstraintError):
		resp.Code = http.StatusConflict
		resp.Message = err.Error()

	case errors.Is(err, internal.ErrNotFound):
		resp.Code = http.StatusNotFound

	case errors.As(err, &validationError):
		resp.Code = http.StatusBadRequest
		resp.Message = err.Error()
		for name, problems := range validationError {
			resp.FieldErrors = append(resp.FieldErrors, api.FieldError{
				FieldName: name,
				Errors:    problems,
			})
		}
		sort.Slice(resp.FieldErrors, func(i, j int) bool {
			return resp.FieldErrors[i].FieldName < resp.FieldErrors[j].FieldName
		})

	case errors.Is(err, internal.ErrBadRequest):
		resp.Code = http.StatusBadRequest
		resp.Message = err.Error()

	case errors.Is(err, internal.ErrUpstream):
		resp.Code = http.StatusInternalServerError
		resp.Message = err.Error()
		log = logging.L.Error()

	case errors.Is(err, context.DeadlineExceeded):
		resp.Code = http.StatusGatewayTimeout
		resp.Message = "request timed out"

	default:
		log = logging.L.Error()
	}

	log.CallerSkipFrame(1).
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int32("statusCode", resp.Code).
		Str("remoteAddr", c.Request.RemoteAddr).
		Msg("api request error")

	if resp.Code == http.StatusNotFound {
		// commit the header now, otherwise the NoRoute path falls through to
		// gin's default 404 body and the response is no longer empty
		c.Status(http.StatusNotFound)
		c.Writer.WriteHeaderNow()
		c.Abort()
		return
	}

	c.JSON(int(resp.Code), resp)
	c.Abort()
}
