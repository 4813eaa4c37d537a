package repository

import (
	"context"
	"time"
)

// Key-value ledger of live sessions
//
// Every operation is single-key or simple-pattern: the store gives no multi-key
// transaction guarantee. Composite sequences (pair creation, rotation) are the
// session manager's problem and must stay recoverable if a call in the middle fails.
type SessionStore interface {
	// Get the value stored under key
	// Absent and TTL-expired keys are the same thing: apperrors.ErrSessionNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set value under key, overwriting existing value and resetting TTL
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete keys and report how many of them existed
	// Deleting an absent key is not an error
	Delete(ctx context.Context, keys ...string) (int64, error)

	// Delete every key matching the glob pattern
	DeleteByPattern(ctx context.Context, pattern string) error

	// Report whether at least one key matches the glob pattern
	ExistsByPattern(ctx context.Context, pattern string) (bool, error)
}
