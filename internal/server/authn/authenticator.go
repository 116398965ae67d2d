package authn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/creativechannel/denizen/internal"
	"github.com/creativechannel/denizen/internal/logging"
	"github.com/creativechannel/denizen/internal/server/cache"
	"github.com/creativechannel/denizen/internal/server/data"
	"github.com/creativechannel/denizen/internal/server/models"
)

// MaxTimestampSkew is the permissible discrepancy between the submitted stamp
// and the server clock.
const MaxTimestampSkew = 900 * time.Second

// ErrReplayDetected marks a request whose nonce was already seen. It unwraps
// to internal.ErrUnauthorized so the response stays an opaque 401, while logs
// and metrics can still tell a replay apart from other failures.
var ErrReplayDetected = fmt.Errorf("%w: replay detected", internal.ErrUnauthorized)

// SignedParams are the authentication fields extracted from a request, plus
// the effective method and action path the signature covers.
type SignedParams struct {
	APIKey    string
	Stamp     int64
	HasStamp  bool
	Nonce     string
	Signature string
	Session   string

	// Method is the effective method: the transport method, replaced by
	// override_method when present, forced to POST for login actions.
	Method string
	// ActionPath is the request path without the leading slash. It is
	// lowercased when the canonical signed string is built.
	ActionPath string
}

// ParseSignedParams extracts the signed-request fields the way the legacy
// gateway did: from the query string first, falling back to an urlencoded
// form body. JSON bodies carry only handler payloads, never auth parameters.
func ParseSignedParams(req *http.Request) SignedParams {
	lookup := func(name string) string {
		if v := req.URL.Query().Get(name); v != "" {
			return v
		}
		if req.PostForm != nil {
			return req.PostForm.Get(name)
		}
		return ""
	}

	params := SignedParams{
		APIKey:    lookup("api_key"),
		Nonce:     lookup("nonce"),
		Signature: lookup("signature"),
		Session:   lookup("session"),
	}

	if raw := lookup("stamp"); raw != "" {
		var stamp int64
		if _, err := fmt.Sscan(raw, &stamp); err == nil {
			params.Stamp = stamp
			params.HasStamp = true
		}
	}

	params.ActionPath = strings.TrimPrefix(req.URL.Path, "/")

	params.Method = req.Method
	if override := lookup("override_method"); override != "" {
		params.Method = strings.ToUpper(override)
	}
	if IsLoginAction(params.ActionPath) {
		// login-class actions are always signed as POST, even when the
		// transport method was overridden
		params.Method = http.MethodPost
	}

	return params
}

// IsLoginAction reports whether the action starts a member session.
func IsLoginAction(actionPath string) bool {
	path := strings.ToLower(strings.TrimSuffix(actionPath, "/"))
	return strings.HasSuffix(path, "/login") || strings.HasSuffix(path, "/force-login")
}

// Authenticator makes the authorize or deny decision for a signed request.
// Each request is evaluated independently; there are no retries.
type Authenticator struct {
	DB     *gorm.DB
	Nonces *NonceStore
	Cache  *cache.Cache

	// MaxSkew overrides MaxTimestampSkew when set. Used by tests.
	MaxSkew time.Duration
}

func (a *Authenticator) maxSkew() time.Duration {
	if a.MaxSkew != 0 {
		return a.MaxSkew
	}
	return MaxTimestampSkew
}

// Authenticate runs the authentication pipeline: parameter presence, stamp
// freshness, nonce length and uniqueness, then signature verification. On
// success it returns the resolved API identity and appends an access-log
// entry. Every check failure collapses to internal.ErrUnauthorized so the
// response never discloses which check rejected the request; the wrapped
// detail is for server logs only.
func (a *Authenticator) Authenticate(ctx context.Context, params SignedParams) (*models.APIKey, error) {
	if err := a.checkParams(params); err != nil {
		return nil, err
	}

	if err := a.checkRequestTime(params); err != nil {
		return nil, err
	}

	if err := a.checkNonce(ctx, params); err != nil {
		return nil, err
	}

	key, err := a.verifySignature(params)
	if err != nil {
		return nil, err
	}

	if a.Cache != nil {
		if err := a.Cache.Log(ctx, "access", key.PublicKey, params.ActionPath); err != nil {
			logging.Warnf("access log: %v", err)
		}
	}

	return key, nil
}

func (a *Authenticator) checkParams(params SignedParams) error {
	missing := func(name string) error {
		return fmt.Errorf("%w: missing parameter %s", internal.ErrUnauthorized, name)
	}

	switch {
	case !params.HasStamp:
		return missing("stamp")
	case params.Nonce == "":
		return missing("nonce")
	case params.Signature == "":
		return missing("signature")
	case params.APIKey == "" && params.Session == "":
		return missing("api_key")
	}
	return nil
}

func (a *Authenticator) checkRequestTime(params SignedParams) error {
	skew := time.Since(time.Unix(params.Stamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > a.maxSkew() {
		return fmt.Errorf("%w: request time skewed by %v", internal.ErrUnauthorized, skew)
	}
	return nil
}

func (a *Authenticator) checkNonce(ctx context.Context, params SignedParams) error {
	if length := len(params.Nonce); length < NonceLengthMinimum || length > NonceLengthMaximum {
		return fmt.Errorf("%w: nonce length %d out of range", internal.ErrUnauthorized, length)
	}

	added, err := a.Nonces.Add(ctx, params.APIKey, params.Nonce)
	if err != nil {
		// an unreachable nonce store fails closed
		return err
	}
	if !added {
		return ErrReplayDetected
	}
	return nil
}

func (a *Authenticator) verifySignature(params SignedParams) (*models.APIKey, error) {
	key, err := data.GetAPIKey(a.DB, data.ByPublicKey(params.APIKey))
	switch {
	case errors.Is(err, internal.ErrNotFound):
		// an unresolvable key can never produce a valid signature
		return nil, fmt.Errorf("%w: unknown api key", internal.ErrUnauthorized)
	case err != nil:
		return nil, err
	}

	expected := ComputeSignature(key.PrivateKey, params.Method, params.Stamp, params.Nonce, params.ActionPath)
	if !VerifySignature(params.Signature, expected) {
		return nil, fmt.Errorf("%w: invalid signature", internal.ErrUnauthorized)
	}

	return key, nil
}
