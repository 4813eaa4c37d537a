package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/repository"
)

// How many keys SCAN inspects per round trip
const scanCount = 100

// Session store backed by redis
// Per-key reads and writes are linearizable at the server, nothing more
type Store struct {
	rdb *redis.Client
}

var _ repository.SessionStore = (*Store)(nil)

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, key).Result()

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, redis.Nil):
		return "", apperrors.ErrSessionNotFound
	default:
		return "", fmt.Errorf("session store error: %w", err)
	}
}

func (s *Store) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	err := s.rdb.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("session store error: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := s.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("session store error: %w", err)
	}
	return deleted, nil
}

func (s *Store) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := s.rdb.Scan(ctx, 0, pattern, scanCount).Iterator()

	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("session store error: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("session store error: %w", err)
	}

	return nil
}

func (s *Store) ExistsByPattern(ctx context.Context, pattern string) (bool, error) {
	iter := s.rdb.Scan(ctx, 0, pattern, scanCount).Iterator()

	if iter.Next(ctx) {
		return true, nil
	}
	if err := iter.Err(); err != nil {
		return false, fmt.Errorf("session store error: %w", err)
	}

	return false, nil
}
