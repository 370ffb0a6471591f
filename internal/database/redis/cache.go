// Package redis provides a caching decorator for the URL repository backed
// by Redis. Lookups are served from cache when possible; writes go through
// to the underlying repository and refresh the cached entry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mbocharov/url-shortener/internal/entity"
)

// ErrCacheMiss is returned when a short code has no cached entry.
var ErrCacheMiss = errors.New("cache miss")

const urlKeyPrefix = "url:"

// URLCache stores serialized URL entities in Redis keyed by short code.
type URLCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Options configures the Redis connection for NewURLCache.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewURLCache connects to Redis and verifies the connection with a ping.
func NewURLCache(ctx context.Context, opts Options) (*URLCache, error) {
	const op = "database.redis.NewURLCache"

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	return &URLCache{
		client: client,
		ttl:    opts.TTL,
	}, nil
}

func urlKey(shortCode string) string {
	return urlKeyPrefix + shortCode
}

// Get retrieves a cached URL, returning ErrCacheMiss when absent.
func (c *URLCache) Get(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "database.redis.URLCache.Get"

	data, err := c.client.Get(ctx, urlKey(shortCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}

		return nil, fmt.Errorf("%s: failed to get cached url: %w", op, err)
	}

	url := new(entity.URL)
	if err := json.Unmarshal(data, url); err != nil {
		return nil, fmt.Errorf("%s: failed to unmarshal cached url: %w", op, err)
	}

	return url, nil
}

// Set caches the URL. The entry's TTL never outlives the URL's own expiration.
func (c *URLCache) Set(ctx context.Context, url *entity.URL, now time.Time) error {
	const op = "database.redis.URLCache.Set"

	ttl := c.ttl
	if url.ExpiresAt != nil {
		if remaining := url.ExpiresAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(url)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal url: %w", op, err)
	}

	if err := c.client.Set(ctx, urlKey(url.ShortCode), data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to cache url: %w", op, err)
	}

	return nil
}

// Delete drops the cached entry for a short code.
func (c *URLCache) Delete(ctx context.Context, shortCode string) error {
	const op = "database.redis.URLCache.Delete"

	if err := c.client.Del(ctx, urlKey(shortCode)).Err(); err != nil {
		return fmt.Errorf("%s: failed to delete cached url: %w", op, err)
	}

	return nil
}

// Close releases the underlying Redis connection.
func (c *URLCache) Close() error {
	return c.client.Close()
}
