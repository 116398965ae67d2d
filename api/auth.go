package api

import (
	"github.com/creativechannel/denizen/internal/validate"
)

// SignedRequestParams are the authentication parameters carried by every
// signed request, in the query string or the body.
type SignedRequestParams struct {
	APIKey    string `form:"api_key" json:"api_key"`
	Stamp     int64  `form:"stamp" json:"stamp"`
	Nonce     string `form:"nonce" json:"nonce"`
	Signature string `form:"signature" json:"signature"`
	Session   string `form:"session" json:"session"`
	// OverrideMethod replaces the transport HTTP method for agents that can
	// not issue PUT or DELETE.
	OverrideMethod string `form:"override_method" json:"override_method"`
}

type LoginRequest struct {
	Username string `form:"username" json:"username"`
	// Userhash is the base64 encoded SHA1 of nonce, username, and password.
	// Credentials must travel in the request body, never the query string.
	Userhash string `form:"userhash" json:"userhash"`
}

func (r LoginRequest) ValidationRules() []validate.ValidationRule {
	return []validate.ValidationRule{
		validate.Required("username", r.Username),
	}
}

type LoginResponse struct {
	Session     string `json:"session"`
	ProfileUUID string `json:"profile_uuid,omitempty"`
}

type ForceLoginRequest struct {
	Username string `form:"username" json:"username"`
}

func (r ForceLoginRequest) ValidationRules() []validate.ValidationRule {
	return []validate.ValidationRule{
		validate.Required("username", r.Username),
	}
}

type SecurityQuestionRequest struct {
	Username string `uri:"username" json:"-"`
	Question string `uri:"question" json:"-"`
	// Answerhash is the base64 encoded SHA1 of nonce and answer. Like the
	// login userhash it must travel in the request body.
	Answerhash string `form:"answerhash" json:"answerhash"`
}

func (r SecurityQuestionRequest) ValidationRules() []validate.ValidationRule {
	return []validate.ValidationRule{
		validate.Required("username", r.Username),
		validate.Required("question", r.Question),
	}
}

type AuthorizedResponse struct {
	IsAuthorized bool `json:"is_authorized"`
}

type TimestampResponse struct {
	Timestamp int64 `json:"timestamp"`
}

type VersionResponse struct {
	Version string `json:"version"`
}
