// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package clientcredentials

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores issued machine-to-machine tokens until shortly before they
// expire.
type Cache interface {
	// Get returns a cached token, or false when absent or expired.
	Get(ctx context.Context, key string) (string, bool)

	// Put stores a token with a TTL.
	Put(ctx context.Context, key, token string, ttl time.Duration) error

	// Delete drops a cached token.
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get returns a cached token, or false when absent or expired.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.token, true
}

// Put stores a token with a TTL.
func (c *MemoryCache) Put(_ context.Context, key, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{token: token, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Delete drops a cached token.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// RedisCache shares tokens across bridge instances through Redis.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a Redis-backed cache. The client may be shared with
// the session storage.
func NewRedisCache(client redis.UniversalClient, keyPrefix string) *RedisCache {
	return &RedisCache{client: client, keyPrefix: keyPrefix}
}

// Get returns a cached token, or false when absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	token, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return token, true
}

// Put stores a token with a TTL.
func (c *RedisCache) Put(ctx context.Context, key, token string, ttl time.Duration) error {
	return c.client.Set(ctx, c.keyPrefix+key, token, ttl).Err()
}

// Delete drops a cached token.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.keyPrefix+key).Err()
}
