// Package session holds the authenticated operator's identity and grants,
// backed by durable key-value storage.
//
// A Store is constructed once per browser profile (client side) or per
// authenticated session (server side) and handed to the permission
// evaluator and the route guard.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
)

// Durable storage keys.
const (
	KeyAuthToken = "auth_token"
	KeyUserInfo  = "user_info"
)

// Store is the session state: the in-memory user record plus the durable
// copy of it and of the auth token.
type Store struct {
	kv  ports.KeyValueStore
	log zerolog.Logger

	mu     sync.RWMutex
	user   *domain.User
	loaded bool
}

// NewStore returns an empty store. Call Init to load the durable record.
func NewStore(kv ports.KeyValueStore, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// Open returns a store that has already consulted durable storage.
func Open(ctx context.Context, kv ports.KeyValueStore, log zerolog.Logger) *Store {
	s := NewStore(kv, log)
	s.Init(ctx)
	return s
}

// Init loads the user record from durable storage. It does nothing once a
// record has been loaded; missing or malformed records leave the store empty.
func (s *Store) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return
	}

	raw, err := s.kv.Get(ctx, KeyUserInfo)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("session: read user record")
		}
		return
	}

	user, err := DecodeUser(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("session: discard stored user record")
		return
	}

	s.user = user
	s.loaded = true
}

// SetUser replaces the user in memory and in durable storage.
func (s *Store) SetUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("session: set user: %w", domain.ErrMalformedUser)
	}

	raw, err := EncodeUser(user)
	if err != nil {
		return fmt.Errorf("session: set user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, KeyUserInfo, raw); err != nil {
		return fmt.Errorf("session: write user record: %w", err)
	}
	clone := *user
	s.user = &clone
	s.loaded = true
	return nil
}

// SetToken stores the auth token.
func (s *Store) SetToken(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, KeyAuthToken, token); err != nil {
		return fmt.Errorf("session: write token: %w", err)
	}
	return nil
}

// Token reads the auth token from durable storage; empty when absent.
func (s *Store) Token(ctx context.Context) string {
	token, err := s.kv.Get(ctx, KeyAuthToken)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("session: read token")
		}
		return ""
	}
	return token
}

// ClearUser forgets the user and deletes the durable record and token.
// The in-memory state is cleared even if storage fails.
func (s *Store) ClearUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.loaded = false
	if err := s.kv.Delete(ctx, KeyUserInfo, KeyAuthToken); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// IsAuthenticated requires both a user in memory and a non-empty token in
// durable storage. The token is re-read on every call so that a deletion by
// another component is observed at once.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	s.mu.RLock()
	hasUser := s.user != nil
	s.mu.RUnlock()

	return hasUser && s.Token(ctx) != ""
}

// User returns a copy of the current user, or nil.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	clone := *s.user
	return &clone
}

// Role returns the user's role, empty without a user.
func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// Permissions returns the user's grants; the empty set without a user.
func (s *Store) Permissions() domain.Permissions {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return domain.Permissions{}
	}
	return s.user.Permissions
}

// Loaded reports whether a user record has been loaded or set.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// EncodeUser serializes a user record for durable storage.
func EncodeUser(user *domain.User) (string, error) {
	b, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	return string(b), nil
}

// DecodeUser parses a stored user record. A record that is not a JSON
// object or has no username is rejected with domain.ErrMalformedUser.
func DecodeUser(raw string) (*domain.User, error) {
	var user *domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedUser, err)
	}
	if user == nil || user.Username == "" {
		return nil, domain.ErrMalformedUser
	}
	return user, nil
}
