package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversiq-server/internal/config"
	"conversiq-server/internal/domain/embedding"
)

func TestVectorEncodingRoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4028235e38}
	assert.Equal(t, in, decodeVector(encodeVector(in)))
	assert.Len(t, encodeVector(in), 16)
}

func TestBuildUniversalOptions(t *testing.T) {
	opts, err := buildUniversalOptions("redis://user:pw@cache-1:6379/2, cache-2:6379")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache-1:6379", "cache-2:6379"}, opts.Addrs)
	assert.Equal(t, "user", opts.Username)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = buildUniversalOptions(" , ")
	assert.Error(t, err)
}

func TestNewEmbeddingCache(t *testing.T) {
	cfg := &config.Config{EmbeddingCacheType: "memory", EmbeddingCacheMaxSize: 8}
	c, err := NewEmbeddingCache(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &embedding.MemoryCache{}, c)

	cfg.EmbeddingCacheType = "noop"
	c, err = NewEmbeddingCache(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &embedding.NoOpsCache{}, c)

	cfg.EmbeddingCacheType = "redis"
	_, err = NewEmbeddingCache(cfg, nil)
	assert.Error(t, err)
}
