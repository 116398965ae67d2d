package api

import (
	"github.com/creativechannel/denizen/internal/validate"
)

// APIKey is the public view of a registered API key. The private key is known
// only server side and never serialized.
type APIKey struct {
	PublicKey   string   `json:"public_key"`
	DisplayName string   `json:"display_name"`
	Application string   `json:"application,omitempty"`
	Groups      []string `json:"groups,omitempty"`
}

type UpdateAPIKeyRequest struct {
	DisplayName string `json:"display_name"`
	Application string `json:"application"`
}

func (r UpdateAPIKeyRequest) ValidationRules() []validate.ValidationRule {
	return []validate.ValidationRule{
		validate.StringRule{Value: r.DisplayName, Name: "display_name", MaxLength: 256},
		validate.StringRule{Value: r.Application, Name: "application", MaxLength: 256},
	}
}
