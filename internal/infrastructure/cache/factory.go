package cache

import (
	"fmt"

	"conversiq-server/internal/config"
	"conversiq-server/internal/domain/embedding"
)

// NewEmbeddingCache builds the configured embedding cache. redis may be nil
// unless the cache type is "redis".
func NewEmbeddingCache(cfg *config.Config, redis *RedisCache) (embedding.Cache, error) {
	switch cfg.EmbeddingCacheType {
	case "redis":
		if redis == nil {
			return nil, fmt.Errorf("redis embedding cache requires REDIS_URL")
		}
		return NewRedisEmbeddingCache(redis, cfg.EmbeddingCacheKeyPrefix), nil
	case "memory":
		return embedding.NewMemoryCache(cfg.EmbeddingCacheMaxSize)
	case "noop", "":
		return embedding.NewNoOpsCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.EmbeddingCacheType)
	}
}
