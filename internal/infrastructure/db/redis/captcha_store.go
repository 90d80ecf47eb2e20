package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minics/console/internal/core/domain"
)

// CaptchaStore keeps captcha answers until they are taken or expire.
// Key format: captcha:<key>
type CaptchaStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCaptchaStore creates a CaptchaStore wrapping the given Redis client.
func NewCaptchaStore(client *redis.Client, ttl time.Duration) *CaptchaStore {
	return &CaptchaStore{client: client, ttl: ttl}
}

// Save records the answer for key (expires after ttl).
func (c *CaptchaStore) Save(ctx context.Context, key, answer string) error {
	return c.client.Set(ctx, c.key(key), answer, c.ttl).Err()
}

// Take returns the answer and removes it, so every captcha is single use.
func (c *CaptchaStore) Take(ctx context.Context, key string) (string, error) {
	v, err := c.client.GetDel(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrCaptchaExpired
	}
	if err != nil {
		return "", fmt.Errorf("captcha take: %w", err)
	}
	return v, nil
}

func (c *CaptchaStore) key(key string) string {
	return "captcha:" + key
}
