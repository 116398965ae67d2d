package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/creativechannel/denizen/internal"
	"github.com/creativechannel/denizen/internal/server/models"
)

const sessionKeyPrefix = "session_"

// SetSession stores the session record under its derived id with ttl.
func (c *Cache) SetSession(ctx context.Context, session *models.Session, ttl time.Duration) error {
	key := sessionKeyPrefix + session.ID
	err := c.client.HSet(ctx, key,
		"id", session.ID,
		"api_key", session.APIKey,
		"username", session.Username,
		"source_name", session.SourceName,
		"source_application", session.SourceApplication,
		"started_at", session.StartedAt,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: cache hset: %s", internal.ErrUpstream, err)
	}

	if _, err := c.ExpireKey(ctx, key, ttl); err != nil {
		return err
	}
	return nil
}

// GetSession returns internal.ErrNotFound for an unknown or expired session.
func (c *Cache) GetSession(ctx context.Context, id string) (*models.Session, error) {
	cmd := c.client.HGetAll(ctx, sessionKeyPrefix+id)
	values, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("%w: cache hgetall: %s", internal.ErrUpstream, err)
	}
	if len(values) == 0 {
		return nil, internal.ErrNotFound
	}

	session := &models.Session{}
	if err := cmd.Scan(session); err != nil {
		return nil, fmt.Errorf("%w: cache session scan: %s", internal.ErrUpstream, err)
	}
	return session, nil
}

// DeleteSession destroys the session record.
func (c *Cache) DeleteSession(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("%w: cache del: %s", internal.ErrUpstream, err)
	}
	return nil
}
