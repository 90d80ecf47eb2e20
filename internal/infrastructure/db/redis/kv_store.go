package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
)

// KVStore is a key/value namespace in Redis.
// Key format: <prefix><key>
type KVStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewKVStore creates a KVStore. A zero ttl keeps keys until deleted.
func NewKVStore(client *redis.Client, prefix string, ttl time.Duration) *KVStore {
	return &KVStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, nil
}

// Set writes the value and restarts the namespace TTL on it.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}

// SessionStore hands out one KVStore per server-side session and keeps a
// per-user index of session ids.
// Key format: session:<session_id>:<key>, user_sessions:<user_id>
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore whose keys expire after ttl, which
// should match the lifetime of the token naming the session.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Namespace(sessionID string) ports.KeyValueStore {
	return NewKVStore(s.client, "session:"+sessionID+":", s.ttl)
}

// Track adds sessionID to the user's index. The index lives as long as the
// newest session in it.
func (s *SessionStore) Track(ctx context.Context, userID, sessionID string) error {
	key := userSessionsKey(userID)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, sessionID)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("track session: %w", err)
	}
	return nil
}

// RevokeUser deletes every indexed session of the user. Sessions that had
// already expired are not counted.
func (s *SessionStore) RevokeUser(ctx context.Context, userID string) (int, error) {
	key := userSessionsKey(userID)
	ids, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	dels := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		ns := "session:" + id + ":"
		dels[i] = pipe.Del(ctx, ns+"auth_token", ns+"user_info")
	}
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}

	ended := 0
	for _, d := range dels {
		if d.Val() > 0 {
			ended++
		}
	}
	return ended, nil
}

func userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}
