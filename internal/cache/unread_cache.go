// Package cache holds the unread notification counter cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	unreadKeyPrefix  = "notifications:unread:"
	versionKeyPrefix = "notifications:unread:gen:"
)

// UnreadCache caches per-user unread notification counts.
//
// Every Invalidate bumps the user's version. A count read from the store is
// only cached through SetIfVersion with the version observed before the read,
// so a count computed concurrently with a change is never cached.
type UnreadCache interface {
	Get(ctx context.Context, userID string) (int64, bool)
	Version(ctx context.Context, userID string) (int64, bool)
	SetIfVersion(ctx context.Context, userID string, count, version int64)
	Invalidate(ctx context.Context, userID string)
}

// setIfVersion writes KEYS[1] only while KEYS[2] still holds ARGV[2].
var setIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if not current then current = '0' end
if current ~= ARGV[2] then return 0 end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// NewUnreadCache returns a Redis-backed cache, or a no-op cache when addr is empty.
func NewUnreadCache(addr, password string, db int, ttl time.Duration) (UnreadCache, func() error, error) {
	if addr == "" {
		logrus.Info("REDIS_ADDR not set, unread count cache disabled")
		return NoopCache{}, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logrus.WithField("addr", addr).Info("Connected to Redis")
	return NewRedisCache(client, ttl), client.Close, nil
}

// RedisCache stores counts under notifications:unread:<userID> with a TTL and
// versions under notifications:unread:gen:<userID>.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, userID string) (int64, bool) {
	n, err := c.client.Get(ctx, unreadKeyPrefix+userID).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).WithField("userID", userID).Warn("Unread cache read failed")
		}
		return 0, false
	}
	return n, true
}

// Version reports false when the version cannot be read, in which case the
// caller must not cache.
func (c *RedisCache) Version(ctx context.Context, userID string) (int64, bool) {
	v, err := c.client.Get(ctx, versionKeyPrefix+userID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Warn("Unread cache version read failed")
		return 0, false
	}
	return v, true
}

func (c *RedisCache) SetIfVersion(ctx context.Context, userID string, count, version int64) {
	keys := []string{unreadKeyPrefix + userID, versionKeyPrefix + userID}
	err := setIfVersion.Run(ctx, c.client, keys, count, version, c.ttl.Milliseconds()).Err()
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Warn("Unread cache write failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, unreadKeyPrefix+userID)
		pipe.Incr(ctx, versionKeyPrefix+userID)
		return nil
	})
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Warn("Unread cache invalidation failed")
	}
}

// NoopCache never hits.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (int64, bool)          { return 0, false }
func (NoopCache) Version(context.Context, string) (int64, bool)      { return 0, false }
func (NoopCache) SetIfVersion(context.Context, string, int64, int64) {}
func (NoopCache) Invalidate(context.Context, string)                 {}
