package access

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/creativechannel/denizen/internal"
	"github.com/creativechannel/denizen/internal/logging"
	"github.com/creativechannel/denizen/internal/server/authn"
	"github.com/creativechannel/denizen/internal/server/data"
	"github.com/creativechannel/denizen/internal/server/models"
)

// GroupSkeletonKeys is the capability group that allows an API identity to
// start member sessions without presenting the member's credential.
const GroupSkeletonKeys = "skeletonkeys"

// Login starts a member session after verifying the forwarded userhash
// against the profile directory. The userhash travels base64 encoded in the
// request body; credentials in the query string are rejected outright.
func Login(c *gin.Context, username, userhash string) (*models.Session, *models.Profile, error) {
	rCtx := GetRequestContext(c)

	if err := rejectCredentialInQuery(rCtx); err != nil {
		return nil, nil, err
	}

	profile, err := data.GetProfile(rCtx.DBTxn, data.ByUsername(username))
	if err != nil {
		return nil, nil, err
	}

	if userhash == "" {
		return nil, nil, fmt.Errorf("%w: missing userhash", internal.ErrBadRequest)
	}

	if err := checkApplication(rCtx, profile); err != nil {
		return nil, nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(userhash)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: userhash is not base64", internal.ErrBadRequest)
	}

	if !profile.VerifyUserhash(rCtx.Nonce, string(decoded)) {
		logProfileEvent(rCtx, "", username, "fail")
		return nil, nil, fmt.Errorf("%w: invalid credentials", internal.ErrUnauthorized)
	}

	if profile.Locked {
		logProfileEvent(rCtx, "", username, "fail")
		return nil, nil, fmt.Errorf("%w: Profile is locked", internal.ErrForbidden)
	}

	session, err := startSession(rCtx, profile)
	if err != nil {
		return nil, nil, err
	}
	return session, profile, nil
}

// ForceLogin starts a member session without a credential check. Only API
// identities in the skeletonkeys group may do this.
func ForceLogin(c *gin.Context, username string) (*models.Session, *models.Profile, error) {
	rCtx := GetRequestContext(c)

	err := HandleAuthErr(IsAuthorizedGroup(rCtx, GroupSkeletonKeys), "force login", GroupSkeletonKeys)
	if err != nil {
		return nil, nil, err
	}

	profile, err := data.GetProfile(rCtx.DBTxn, data.ByUsername(username))
	if err != nil {
		return nil, nil, err
	}

	if profile.Locked {
		logProfileEvent(rCtx, "", username, "fail")
		return nil, nil, fmt.Errorf("%w: Profile is locked", internal.ErrForbidden)
	}

	session, err := startSession(rCtx, profile)
	if err != nil {
		return nil, nil, err
	}
	return session, profile, nil
}

// AuthSecurityQuestion verifies a forwarded answerhash against one of the
// profile's provisioned challenge questions. Like Login it accepts the
// credential from the request body only, and an unknown profile or question
// is a 404.
func AuthSecurityQuestion(c *gin.Context, username, questionID, answerhash string) error {
	rCtx := GetRequestContext(c)

	if err := rejectCredentialInQuery(rCtx); err != nil {
		return err
	}

	profile, err := data.GetProfile(rCtx.DBTxn, data.ByUsername(username))
	if err != nil {
		return err
	}

	if answerhash == "" {
		return fmt.Errorf("%w: missing answerhash", internal.ErrBadRequest)
	}

	question, err := data.GetSecurityQuestion(rCtx.DBTxn,
		data.ByProfileID(profile.ID), data.ByQuestionID(questionID))
	if err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(answerhash)
	if err != nil {
		return fmt.Errorf("%w: answerhash is not base64", internal.ErrBadRequest)
	}

	if !question.VerifyAnswerhash(rCtx.Nonce, string(decoded)) {
		logProfileEvent(rCtx, "", username, "question-fail")
		return fmt.Errorf("%w: invalid answer", internal.ErrUnauthorized)
	}

	logProfileEvent(rCtx, "", username, "question-success")
	return nil
}

// Logout destroys the authenticated member session.
func Logout(c *gin.Context) error {
	rCtx := GetRequestContext(c)

	session := rCtx.Authenticated.Session
	if session == nil {
		return fmt.Errorf("%w: no session", internal.ErrUnauthorized)
	}

	if err := rCtx.Cache.DeleteSession(rCtx.Request.Context(), session.ID); err != nil {
		return err
	}

	logProfileEvent(rCtx, session.ID, session.Username, "logout")
	return nil
}

func startSession(rCtx RequestContext, profile *models.Profile) (*models.Session, error) {
	key := rCtx.Authenticated.APIKey

	startedAt := time.Now().Unix()
	session := &models.Session{
		ID:                rCtx.Sessions.GenerateSessionID(authn.RemoteHost(rCtx.Request), startedAt),
		APIKey:            key.PublicKey,
		Username:          profile.Username,
		SourceName:        key.DisplayName,
		SourceApplication: key.Application,
		StartedAt:         startedAt,
	}

	if err := rCtx.Cache.SetSession(rCtx.Request.Context(), session, rCtx.SessionDuration); err != nil {
		return nil, err
	}

	logProfileEvent(rCtx, session.ID, profile.Username, "success")
	return session, nil
}

// checkApplication enforces the application registration of the API identity:
// a key bound to an application may only log in profiles registered for it.
func checkApplication(rCtx RequestContext, profile *models.Profile) error {
	application := rCtx.Authenticated.APIKey.Application
	if application == "" {
		return nil
	}
	if !profile.Applications.Includes(application) {
		return fmt.Errorf("%w: Application not registered for specified profile", internal.ErrForbidden)
	}
	return nil
}

func rejectCredentialInQuery(rCtx RequestContext) error {
	query := strings.ToLower(rCtx.Request.URL.RawQuery)
	for _, banned := range []string{"hash=", "password=", "answer="} {
		if strings.Contains(query, banned) {
			return fmt.Errorf("%w: credentials must be sent in the request body", internal.ErrBadRequest)
		}
	}
	return nil
}

func logProfileEvent(rCtx RequestContext, sessionID, username, outcome string) {
	if rCtx.Cache == nil {
		return
	}
	err := rCtx.Cache.Log(rCtx.Request.Context(), "profile", sessionID, username, outcome)
	if err != nil {
		logging.Warnf("profile audit log: %v", err)
	}
}
