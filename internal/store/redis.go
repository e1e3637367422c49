package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps Redis failures so callers can tell them from logic errors.
var ErrUnavailable = errors.New("shown set store unavailable")

const defaultShownPrefix = "briefing:shown:"

// shownTTL keeps yesterday's key around briefly for inspection; rollover is
// implied by the per-day key, not by expiry.
const shownTTL = 48 * time.Hour

// RedisShownSet keeps one Redis set per calendar day, so a new day always
// starts from an empty key and the set survives process restarts.
type RedisShownSet struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisShownSet connects using a URL such as redis://:pass@host:6379/0.
// An empty prefix defaults to "briefing:shown:".
func NewRedisShownSet(ctx context.Context, redisURL, prefix string) (*RedisShownSet, error) {
	if prefix == "" {
		prefix = defaultShownPrefix
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}

	return &RedisShownSet{rdb: rdb, prefix: prefix}, nil
}

func (s *RedisShownSet) key(day string) string { return s.prefix + day }

// Snapshot returns the identifiers stored for day.
func (s *RedisShownSet) Snapshot(ctx context.Context, day string) (map[string]struct{}, error) {
	members, err := s.rdb.SMembers(ctx, s.key(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: smembers: %v", ErrUnavailable, err)
	}

	out := make(map[string]struct{}, len(members))
	for _, m := range members {
		out[m] = struct{}{}
	}
	return out, nil
}

// Add marks id as shown on day and reports whether it was newly added.
func (s *RedisShownSet) Add(ctx context.Context, day, id string) (bool, error) {
	pipe := s.rdb.TxPipeline()
	added := pipe.SAdd(ctx, s.key(day), id)
	pipe.Expire(ctx, s.key(day), shownTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%w: sadd: %v", ErrUnavailable, err)
	}
	return added.Val() == 1, nil
}

// Close closes the Redis client.
func (s *RedisShownSet) Close() error { return s.rdb.Close() }
