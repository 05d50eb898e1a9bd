// Package tokencache keeps one provider access token per install in Redis.
// Expiry is enforced by the key TTL, never by the reader.
package tokencache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"enrichsync/internal/constants"
	"enrichsync/internal/install"
	"enrichsync/pkg/metrics"
)

type cachedToken struct {
	AccessToken string `json:"access_token"`
}

type Cache struct {
	rdb redis.Cmdable
}

func New(rdb redis.Cmdable) *Cache {
	return &Cache{rdb: rdb}
}

func accessTokenKey(installID string) string {
	return installID + constants.CacheKeySuffixAccessToken
}

func connectorAuthKey(installID string) string {
	return installID + constants.CacheKeySuffixConnectorAuth
}

// Get returns the cached token for installID. found is false when the token
// was never stored or its TTL has passed.
func (c *Cache) Get(ctx context.Context, installID string) (token string, found bool, err error) {
	val, err := c.rdb.Get(ctx, accessTokenKey(installID)).Result()
	if errors.Is(err, redis.Nil) {
		metrics.IncTokenCacheLookup(false)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}

	var cached cachedToken
	if err := json.Unmarshal([]byte(val), &cached); err != nil || cached.AccessToken == "" {
		// unreadable entries behave like a miss and get overwritten on refresh
		metrics.IncTokenCacheLookup(false)
		return "", false, nil
	}

	metrics.IncTokenCacheLookup(true)
	return cached.AccessToken, true, nil
}

// Set stores token for ttl. A non-positive ttl stores nothing, since the
// token would already be considered expired.
func (c *Cache) Set(ctx context.Context, installID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	body, err := json.Marshal(cachedToken{AccessToken: token})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := c.rdb.Set(ctx, accessTokenKey(installID), body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, installID string) error {
	if err := c.rdb.Del(ctx, accessTokenKey(installID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// TTLFor converts a provider-declared lifetime into the cache TTL.
func TTLFor(expiresInSeconds int) time.Duration {
	return time.Duration(expiresInSeconds)*time.Second - constants.TokenSafetyMargin
}

// StoreConnectorAuth remembers the CRM credentials of an install so
// background jobs can reach the CRM without a live request.
func (c *Cache) StoreConnectorAuth(ctx context.Context, auth install.Auth, ttl time.Duration) error {
	body, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to encode connector auth: %w", err)
	}
	if err := c.rdb.Set(ctx, connectorAuthKey(auth.ID), body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *Cache) ConnectorAuth(ctx context.Context, installID string) (*install.Auth, error) {
	val, err := c.rdb.Get(ctx, connectorAuthKey(installID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var auth install.Auth
	if err := json.Unmarshal([]byte(val), &auth); err != nil {
		return nil, fmt.Errorf("failed to decode connector auth: %w", err)
	}
	return &auth, nil
}
