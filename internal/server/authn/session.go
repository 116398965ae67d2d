package authn

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/creativechannel/denizen/internal"
	"github.com/creativechannel/denizen/internal/logging"
	"github.com/creativechannel/denizen/internal/server/cache"
	"github.com/creativechannel/denizen/internal/server/models"
)

// DefaultSessionSegmentLength is the number of characters kept from the
// host-to-host hash segment of a session id.
const DefaultSessionSegmentLength = 8

// SessionAuthenticator validates member sessions layered on top of an
// authenticated API identity. Session ids are derived, not random: the id can
// be regenerated from the session's start timestamp and the caller's address,
// so a presented id proves knowledge of both.
type SessionAuthenticator struct {
	Cache *cache.Cache

	// Salt is the fixed shared secret mixed into both id segments.
	Salt string
	// SegmentLength truncates the host hash segment. Zero means
	// DefaultSessionSegmentLength.
	SegmentLength int
	// HostName identifies this server in the host-to-host segment.
	HostName string
}

func (s *SessionAuthenticator) segmentLength() int {
	if s.SegmentLength > 0 {
		return s.SegmentLength
	}
	return DefaultSessionSegmentLength
}

// GenerateSessionID derives a session id from the request source address and
// the session start timestamp. The construction must match what deployed
// agents expect: a truncated salted hash of the host pair, followed by a
// salted hash of the timestamp.
func (s *SessionAuthenticator) GenerateSessionID(remoteAddr string, startedAt int64) string {
	hostHash := sha1Hex(s.HostName + remoteAddr + s.Salt)
	hostHash = hostHash[:s.segmentLength()]

	stampHash := sha1Hex(strconv.FormatInt(startedAt, 10) + s.Salt)

	return hostHash + stampHash
}

func sha1Hex(value string) string {
	sum := sha1.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

// RemoteHost strips the port from a request's RemoteAddr, leaving the address
// that participates in session id derivation.
func RemoteHost(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// Authenticate validates a presented member session against the session
// store and binds it to the already-authenticated API identity. It fails
// with internal.ErrUnauthorized on any mismatch.
func (s *SessionAuthenticator) Authenticate(ctx context.Context, req *http.Request, params SignedParams, apiKey *models.APIKey) (*models.Session, error) {
	// hashes travel in the body only, where they stay out of access logs
	if strings.Contains(strings.ToLower(req.URL.RawQuery), "hash=") {
		return nil, fmt.Errorf("%w: credential hash submitted in query", internal.ErrUnauthorized)
	}

	if params.Session == "" {
		return nil, fmt.Errorf("%w: missing session", internal.ErrUnauthorized)
	}

	session, err := s.Cache.GetSession(ctx, params.Session)
	switch {
	case errors.Is(err, internal.ErrNotFound):
		return nil, fmt.Errorf("%w: unknown session", internal.ErrUnauthorized)
	case err != nil:
		return nil, err
	}

	expected := s.GenerateSessionID(RemoteHost(req), session.StartedAt)
	if params.Session != expected {
		return nil, fmt.Errorf("%w: session id mismatch", internal.ErrUnauthorized)
	}

	// a session started under one API key may not be replayed through another
	if !strings.EqualFold(session.APIKey, apiKey.PublicKey) {
		return nil, fmt.Errorf("%w: session api key mismatch", internal.ErrUnauthorized)
	}

	if err := s.Cache.Log(ctx, "session", session.ID, params.ActionPath); err != nil {
		logging.Warnf("session audit log: %v", err)
	}

	return session, nil
}
