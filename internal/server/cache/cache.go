// Package cache wraps the redis server that holds nonce sets, sessions, and
// the append-only audit logs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/creativechannel/denizen/internal"
)

// Separator joins the fields of an audit log entry.
const Separator = "|"

type Cache struct {
	client *redis.Client
}

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	Options  string
}

func NewCache(options Options) (*Cache, error) {
	if options.Host == "" {
		return nil, nil
	}

	redisOptions, err := redis.ParseURL(fmt.Sprintf("redis://%s:%d?%s", options.Host, options.Port, options.Options))
	if err != nil {
		return nil, fmt.Errorf("invalid cache options: %w", err)
	}

	redisOptions.Username = options.Username
	redisOptions.Password = options.Password

	return &Cache{client: redis.NewClient(redisOptions)}, nil
}

// NewCacheWithClient is used by tests to back the cache with miniredis.
func NewCacheWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// SetMemberExists reports whether member is present in the ordered set named
// by key. A store failure is wrapped in internal.ErrUpstream so callers can
// fail closed instead of treating unreachability as "not present".
func (c *Cache) SetMemberExists(ctx context.Context, key, member string) (bool, error) {
	err := c.client.ZScore(ctx, key, member).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%w: cache zscore: %s", internal.ErrUpstream, err)
	}
	return true, nil
}

// AddSetMemberNX inserts member into the ordered set named by key with score,
// only if the member is not already present, then applies ttl to the whole
// set. The insert and the membership check are a single atomic operation.
// Returns false when the member already existed, or when refreshing the TTL
// failed and failOnExpire is set.
func (c *Cache) AddSetMemberNX(ctx context.Context, key, member string, score float64, ttl time.Duration, failOnExpire bool) (bool, error) {
	added, err := c.client.ZAddNX(ctx, key, &redis.Z{Score: score, Member: member}).Result()
	if err != nil {
		return false, fmt.Errorf("%w: cache zadd: %s", internal.ErrUpstream, err)
	}

	if ttl > 0 {
		ok, err := c.ExpireKey(ctx, key, ttl)
		if err != nil {
			return false, err
		}
		if !ok && failOnExpire {
			return false, nil
		}
	}

	return added > 0, nil
}

// ExpireKey resets the TTL for the whole key.
func (c *Cache) ExpireKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: cache expire: %s", internal.ErrUpstream, err)
	}
	return ok, nil
}

// Log appends an entry to the audit log list named by category. Fields are
// joined with Separator and the current POSIX timestamp is appended as the
// final field.
func (c *Cache) Log(ctx context.Context, category string, fields ...string) error {
	entry := strings.Join(fields, Separator) + Separator + strconv.FormatInt(time.Now().Unix(), 10)
	if err := c.client.RPush(ctx, category, entry).Err(); err != nil {
		return fmt.Errorf("%w: cache rpush: %s", internal.ErrUpstream, err)
	}
	return nil
}
