package access

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/creativechannel/denizen/internal/logging"
)

var ErrNotAuthorized = errors.New("not authorized")

// AuthorizationError indicates that the API identity that performed the
// operation does not belong to the required group.
type AuthorizationError struct {
	Operation     string
	RequiredGroup string
}

func (e AuthorizationError) Error() string {
	return fmt.Sprintf("you do not have permission to %v, requires group %v",
		e.Operation, e.RequiredGroup)
}

func (e AuthorizationError) Is(other error) bool {
	// nolint:errorlint // comparing with == is correct here, the caller uses Unwrap.
	return other == ErrNotAuthorized
}

func HandleAuthErr(err error, operation, group string) error {
	if !errors.Is(err, ErrNotAuthorized) {
		return err
	}
	return AuthorizationError{Operation: operation, RequiredGroup: group}
}

// IsAuthorizedGroup checks that the authenticated API identity belongs to
// requiredGroup. The boolean outcome is appended to the audit log under
// "group_<name>" either way.
func IsAuthorizedGroup(rCtx RequestContext, requiredGroup string) error {
	key := rCtx.Authenticated.APIKey
	if key == nil {
		return fmt.Errorf("no authenticated api key")
	}

	authorized := key.Groups.Includes(requiredGroup)

	if rCtx.Cache != nil {
		err := rCtx.Cache.Log(rCtx.Request.Context(), "group_"+requiredGroup,
			key.PublicKey, rCtx.ActionPath, strconv.FormatBool(authorized))
		if err != nil {
			logging.Warnf("group audit log: %v", err)
		}
	}

	if !authorized {
		return ErrNotAuthorized
	}
	return nil
}
