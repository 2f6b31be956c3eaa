package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const verifiedTokenTTL = 5 * time.Minute

// TokenCache short-circuits repeated verification of the same token within
// a small window. Keys are hashes of the token, never the token itself.
type TokenCache struct {
	client *redis.Client
}

func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:token:" + hex.EncodeToString(sum[:])
}

// Get returns cached claims for the token, or nil on miss.
func (c *TokenCache) Get(ctx context.Context, token string) *Claims {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, cacheKey(token)).Bytes()
	if err != nil {
		return nil
	}
	claims := &Claims{}
	if err := json.Unmarshal(raw, claims); err != nil {
		return nil
	}
	return claims
}

// Set stores verified claims under the token's hash. Failures are ignored;
// the cache is an optimization, not a source of truth.
func (c *TokenCache) Set(ctx context.Context, token string, claims *Claims) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(token), raw, verifiedTokenTTL)
}
