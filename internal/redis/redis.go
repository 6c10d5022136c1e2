package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"geoenrich/internal/model"

	"github.com/redis/go-redis/v9"
)

// redisClient is the connection shared by the resolution cache
var redisClient *redis.Client

// Init connects to Redis and sets the shared client
func Init(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	log.Println("Successfully connected to Redis")
	redisClient = client

	return client
}

// GetClient returns the global Redis client connection
func GetClient() *redis.Client {
	return redisClient
}

// Close closes the Redis client connection
func Close() error {
	if redisClient != nil {
		log.Println("Closing Redis connection...")
		return redisClient.Close()
	}
	return nil
}

const pointCachePrefix = "geoenrich:point"

// PointCache stores point resolutions keyed by exact coordinates under a
// namespace identifying the boundary index. An empty value records that the
// point resolved to nothing.
type PointCache struct {
	client    *redis.Client
	ttl       time.Duration
	namespace string
}

// NewPointCache creates a cache with entries expiring after ttl (0 keeps them
// forever). Caches with different namespaces never see each other's entries.
func NewPointCache(client *redis.Client, ttl time.Duration, namespace string) *PointCache {
	return &PointCache{
		client:    client,
		ttl:       ttl,
		namespace: namespace,
	}
}

func (c *PointCache) key(point model.GeographicPoint) string {
	return fmt.Sprintf("%s:%s:%s", pointCachePrefix, c.namespace, point.CacheKey())
}

// Get returns the cached key for the point
func (c *PointCache) Get(ctx context.Context, point model.GeographicPoint) (string, bool, error) {
	value, err := c.client.Get(ctx, c.key(point)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached point %s: %w", point, err)
	}
	return value, true, nil
}

// Set caches the key for the point
func (c *PointCache) Set(ctx context.Context, point model.GeographicPoint, key string) error {
	if err := c.client.Set(ctx, c.key(point), key, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache point %s: %w", point, err)
	}
	return nil
}
