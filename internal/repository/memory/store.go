// Package memory is an in-process session store with the same contract as the
// redis one. It backs unit tests and local runs without a redis around.
package memory

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/repository"
)

type entry struct {
	value   string
	expires time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

type Store struct {
	mu      sync.Mutex
	entries map[string]entry
}

var _ repository.SessionStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{entries: map[string]entry{}}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.expired(time.Now()) {
		delete(s.entries, key)
		return "", apperrors.ErrSessionNotFound
	}

	return e.value, nil
}

func (s *Store) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry{value: value, expires: expires}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, key := range keys {
		e, ok := s.entries[key]
		if ok && !e.expired(now) {
			deleted++
		}
		delete(s.entries, key)
	}

	return deleted, nil
}

func (s *Store) DeleteByPattern(ctx context.Context, pattern string) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			continue
		}
		if match(pattern, key) {
			delete(s.entries, key)
		}
	}

	return nil
}

func (s *Store) ExistsByPattern(ctx context.Context, pattern string) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			continue
		}
		if match(pattern, key) {
			return true, nil
		}
	}

	return false, nil
}

// Session keys never contain '/', so path.Match gives redis-like glob semantics
func match(pattern string, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}
