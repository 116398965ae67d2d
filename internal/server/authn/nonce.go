package authn

import (
	"context"
	"strings"
	"time"

	"github.com/creativechannel/denizen/internal/server/cache"
)

const (
	// NonceKeyPrefix names the per-key ordered set of seen nonces.
	NonceKeyPrefix = "nonces_"
	// NonceLifetime is how long a nonce set lives after its last write.
	NonceLifetime = 1200 * time.Second

	NonceLengthMinimum = 8
	NonceLengthMaximum = 36
)

// NonceStore tracks previously seen request nonces per API key.
//
// The expiry is a whole-set sliding window: every touch of the set, including
// a rejected replay, resets the TTL for all of the key's nonces. A replaying
// caller keeps extending the life of the block instead of aging it out.
// Individual members are never pruned before the set expires.
type NonceStore struct {
	cache *cache.Cache
}

func NewNonceStore(c *cache.Cache) *NonceStore {
	return &NonceStore{cache: c}
}

// key canonicalizes apiKey the same way identity resolution does. Key lookup
// is case insensitive, so a case variant of the same key must land in the
// same nonce set or a replayed request could sidestep the window.
func (s *NonceStore) key(apiKey string) string {
	return NonceKeyPrefix + strings.ToLower(apiKey)
}

// Add records nonce for apiKey, only if it has not been seen inside the
// current window, and slides the whole set's expiry. The check and the insert
// are one atomic operation, so two concurrent requests carrying the same
// nonce can not both pass. Returns false when the nonce was already present.
func (s *NonceStore) Add(ctx context.Context, apiKey, nonce string) (bool, error) {
	score := float64(time.Now().Unix())
	return s.cache.AddSetMemberNX(ctx, s.key(apiKey), nonce, score, NonceLifetime, false)
}

// Exists reports whether nonce was already submitted for apiKey. A hit also
// refreshes the set's expiry back to the full window.
func (s *NonceStore) Exists(ctx context.Context, apiKey, nonce string) (bool, error) {
	exists, err := s.cache.SetMemberExists(ctx, s.key(apiKey), nonce)
	if err != nil {
		return false, err
	}
	if exists {
		if _, err := s.cache.ExpireKey(ctx, s.key(apiKey), NonceLifetime); err != nil {
			return true, err
		}
	}
	return exists, nil
}

// RefreshExpiry resets the expiration for the key's entire nonce set.
func (s *NonceStore) RefreshExpiry(ctx context.Context, apiKey string) (bool, error) {
	return s.cache.ExpireKey(ctx, s.key(apiKey), NonceLifetime)
}
