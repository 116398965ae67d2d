package api

import (
	"time"

	"github.com/creativechannel/denizen/internal/validate"
)

type Profile struct {
	UUID         string    `json:"uuid"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Locked       bool      `json:"locked"`
	Applications []string  `json:"applications,omitempty"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}

type GetProfileRequest struct {
	Username string `uri:"username"`
}

func (r GetProfileRequest) ValidationRules() []validate.ValidationRule {
	return []validate.ValidationRule{
		validate.Required("username", r.Username),
	}
}

type ListProfilesRequest struct {
	PaginationRequest
}

type CreateProfileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	// Password is the credential stored for the profile. Agents that hold
	// only a userhash can not create profiles.
	Password     string   `json:"password"`
	Applications []string `json:"applications"`
}

func (r CreateProfileRequest) ValidationRules() []validate.ValidationRule {
	return []validate.ValidationRule{
		validate.Required("username", r.Username),
		validate.StringRule{
			Value:           r.Username,
			Name:            "username",
			MinLength:       2,
			MaxLength:       64,
			CharacterRanges: append(validate.AlphaNumeric, validate.Dash, validate.Underscore, validate.Dot),
		},
		validate.Required("password", r.Password),
	}
}

type UpdateProfileRequest struct {
	Username     string   `uri:"username" json:"-"`
	DisplayName  string   `json:"display_name"`
	Email        string   `json:"email"`
	Locked       *bool    `json:"locked"`
	Applications []string `json:"applications"`
}

func (r UpdateProfileRequest) ValidationRules() []validate.ValidationRule {
	return []validate.ValidationRule{
		validate.Required("username", r.Username),
	}
}

type DeleteProfileRequest struct {
	Username string `uri:"username"`
}

func (r DeleteProfileRequest) ValidationRules() []validate.ValidationRule {
	return []validate.ValidationRule{
		validate.Required("username", r.Username),
	}
}
