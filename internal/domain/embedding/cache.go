package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Cache interface for embedding storage
type Cache interface {
	Get(key string) ([]float32, bool)
	Set(key string, value []float32, ttl time.Duration)
}

// CacheKey derives a fixed-length key from the model and the input text.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is an in-process LRU with per-entry expiry.
type MemoryCache struct {
	cache *lru.Cache
	mu    sync.Mutex
	now   func() time.Time
}

type cacheEntry struct {
	value     []float32
	expiresAt time.Time
}

func NewMemoryCache(maxSize int) (*MemoryCache, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{cache: cache, now: time.Now}, nil
}

func (c *MemoryCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}

	entry := val.(cacheEntry)
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.cache.Remove(key)
		return nil, false
	}

	return copyVector(entry.value), true
}

func (c *MemoryCache) Set(key string, value []float32, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{value: copyVector(value)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.cache.Add(key, entry)
}

// NoOpsCache disables caching.
type NoOpsCache struct{}

func NewNoOpsCache() *NoOpsCache {
	return &NoOpsCache{}
}

func (c *NoOpsCache) Get(key string) ([]float32, bool) {
	return nil, false
}

func (c *NoOpsCache) Set(key string, value []float32, ttl time.Duration) {}

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
