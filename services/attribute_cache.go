package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/repository"
)

const (
	AttributeCachePrefix = "attributes:defs:"
	DefaultAttributeTTL  = 5 * time.Minute
)

// AttributeCache fronts the attribute definition store with a short-lived
// Redis cache. Each import reads definitions once per run; the cache keeps
// back-to-back jobs from re-querying a collection that rarely changes.
type AttributeCache struct {
	redis *redis.Client
	repo  repository.AttributeRepo
	ttl   time.Duration
}

func NewAttributeCache(rdb *redis.Client, repo repository.AttributeRepo) *AttributeCache {
	return &AttributeCache{
		redis: rdb,
		repo:  repo,
		ttl:   DefaultAttributeTTL,
	}
}

// Definitions returns the attribute definitions for one entity type,
// serving from cache when possible. A cold or failing cache falls through
// to the repository.
func (c *AttributeCache) Definitions(ctx context.Context, entityType models.JobType) ([]models.AttributeDefinition, error) {
	key := AttributeCachePrefix + string(entityType)

	if c.redis != nil {
		cached, err := c.redis.Get(ctx, key).Result()
		if err == nil {
			var defs []models.AttributeDefinition
			if err := json.Unmarshal([]byte(cached), &defs); err == nil {
				return defs, nil
			}
			zap.L().Warn("Discarding corrupt attribute definition cache entry", zap.String("key", key))
		}
	}

	defs, err := c.repo.ListByEntityType(ctx, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to load attribute definitions: %w", err)
	}
	c.setAsync(key, defs)
	return defs, nil
}

// setAsync caches definitions without blocking the import path.
func (c *AttributeCache) setAsync(key string, defs []models.AttributeDefinition) {
	if c.redis == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		raw, err := json.Marshal(defs)
		if err != nil {
			zap.L().Warn("Failed to marshal attribute definitions for cache", zap.Error(err))
			return
		}
		if err := c.redis.Set(bgCtx, key, raw, c.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache attribute definitions", zap.Error(err))
		}
	}()
}

// Invalidate drops the cached definitions for one entity type. Called
// after definitions are edited so the next import sees the change.
func (c *AttributeCache) Invalidate(ctx context.Context, entityType models.JobType) error {
	if c.redis == nil {
		return nil
	}
	key := AttributeCachePrefix + string(entityType)
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate attribute cache %s: %w", key, err)
	}
	return nil
}
