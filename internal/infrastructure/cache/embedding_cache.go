package cache

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"conversiq-server/internal/domain/embedding"
)

// opTimeout bounds each cache round trip so a slow Redis never stalls embedding.
const opTimeout = 200 * time.Millisecond

// RedisEmbeddingCache stores vectors as little-endian float32 blobs.
type RedisEmbeddingCache struct {
	cache     *RedisCache
	keyPrefix string
}

// NewRedisEmbeddingCache wraps a RedisCache for embedding lookups.
func NewRedisEmbeddingCache(cache *RedisCache, keyPrefix string) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{cache: cache, keyPrefix: keyPrefix}
}

// Get retrieves an embedding from cache
func (c *RedisEmbeddingCache) Get(key string) ([]float32, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := c.cache.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil || len(data)%4 != 0 {
		return nil, false
	}
	return decodeVector(data), true
}

// Set stores an embedding in cache
func (c *RedisEmbeddingCache) Set(key string, value []float32, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := c.cache.client.Set(ctx, c.keyPrefix+key, encodeVector(value), ttl).Err(); err != nil {
		c.cache.log.Debug().Err(err).Msg("failed to cache embedding")
	}
}

func encodeVector(value []float32) []byte {
	data := make([]byte, len(value)*4)
	for i, f := range value {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return data
}

func decodeVector(data []byte) []float32 {
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}

var _ embedding.Cache = (*RedisEmbeddingCache)(nil)
