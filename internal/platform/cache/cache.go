// Package cache provides a Redis client wrapper and a short-lived cache
// for generated study plans.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studypilot/studypilot/internal/planner"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache wraps a Redis client.
type Cache struct {
	Client *redis.Client
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New creates a new cache client.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// PlanCache keeps the active plan per learner so repeated reads skip
// regeneration. Regeneration always overwrites; invalidation is by TTL
// or explicit drop.
type PlanCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewPlanCache creates a plan cache with the given entry lifetime.
func NewPlanCache(c *Cache, ttl time.Duration) *PlanCache {
	return &PlanCache{cache: c, ttl: ttl}
}

func planKey(learnerID string) string {
	return "plan:" + learnerID
}

// Get returns the cached plan for a learner, or ErrMiss.
func (pc *PlanCache) Get(ctx context.Context, learnerID string) (*planner.Plan, error) {
	data, err := pc.cache.Client.Get(ctx, planKey(learnerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("plan for %q: %w", learnerID, ErrMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached plan: %w", err)
	}

	var plan planner.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decoding cached plan: %w", err)
	}
	return &plan, nil
}

// Set stores a plan for a learner.
func (pc *PlanCache) Set(ctx context.Context, learnerID string, plan *planner.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	if err := pc.cache.Client.Set(ctx, planKey(learnerID), data, pc.ttl).Err(); err != nil {
		return fmt.Errorf("caching plan: %w", err)
	}
	return nil
}

// Drop evicts a learner's cached plan, forcing the next read to
// regenerate.
func (pc *PlanCache) Drop(ctx context.Context, learnerID string) error {
	if err := pc.cache.Client.Del(ctx, planKey(learnerID)).Err(); err != nil {
		return fmt.Errorf("dropping cached plan: %w", err)
	}
	return nil
}
