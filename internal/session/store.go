package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks live refresh sessions by the refresh token's ID.
type Store interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	// UserID returns the owner of a live session, or "" when it is unknown,
	// revoked or expired.
	UserID(ctx context.Context, sessionID string) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

const keyPrefix = "session:"

type RedisStore struct {
	RDB *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{RDB: rdb}
}

func (s *RedisStore) Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return s.RDB.Set(ctx, keyPrefix+sessionID, userID, ttl).Err()
}

func (s *RedisStore) UserID(ctx context.Context, sessionID string) (string, error) {
	uid, err := s.RDB.Get(ctx, keyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return uid, err
}

func (s *RedisStore) Revoke(ctx context.Context, sessionID string) error {
	return s.RDB.Del(ctx, keyPrefix+sessionID).Err()
}
