package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversiq-server/internal/domain/outcome"
)

type MockClient struct {
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls     int
}

func (m *MockClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	return m.EmbedFunc(ctx, texts)
}

func (m *MockClient) ValidateServer(ctx context.Context, dimension int) error {
	return nil
}

func constVector(dim int, v float32) []float32 {
	out := make([]float32, dim)
	for i := range out {
		out[i] = v
	}
	return out
}

func newTestService(client Client, cache Cache) *Service {
	return NewService(client, cache, Config{
		Model:     "all-MiniLM-L6-v2",
		Dimension: 384,
		Timeout:   time.Second,
		CacheType: "memory",
		CacheTTL:  time.Minute,
	}, zerolog.Nop())
}

func TestEmbedNormalizesVector(t *testing.T) {
	client := &MockClient{EmbedFunc: func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{constVector(384, 3)}, nil
	}}
	svc := newTestService(client, nil)

	vec := svc.Embed(context.Background(), "hello")
	require.Len(t, vec, 384)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestEmbedIsDeterministicAndCached(t *testing.T) {
	client := &MockClient{EmbedFunc: func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{constVector(384, float32(len(texts[0])))}, nil
	}}
	cache, err := NewMemoryCache(16)
	require.NoError(t, err)
	svc := newTestService(client, cache)

	first := svc.Embed(context.Background(), "same text")
	second := svc.Embed(context.Background(), "same text")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.calls)
}

func TestEmbedFailuresReturnEmptyVector(t *testing.T) {
	tests := []struct {
		name     string
		embed    func(ctx context.Context, texts []string) ([][]float32, error)
		wantKind outcome.FailureKind
	}{
		{
			name: "service down",
			embed: func(_ context.Context, _ []string) ([][]float32, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
			wantKind: outcome.KindUpstream,
		},
		{
			name: "timeout",
			embed: func(ctx context.Context, _ []string) ([][]float32, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			wantKind: outcome.KindTimeout,
		},
		{
			name: "wrong dimension",
			embed: func(_ context.Context, _ []string) ([][]float32, error) {
				return [][]float32{constVector(768, 1)}, nil
			},
			wantKind: outcome.KindMalformed,
		},
		{
			name: "no vectors",
			embed: func(_ context.Context, _ []string) ([][]float32, error) {
				return [][]float32{}, nil
			},
			wantKind: outcome.KindMalformed,
		},
		{
			name: "zero vector",
			embed: func(_ context.Context, _ []string) ([][]float32, error) {
				return [][]float32{constVector(384, 0)}, nil
			},
			wantKind: outcome.KindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&MockClient{EmbedFunc: tt.embed}, nil, Config{
				Model:     "m",
				Dimension: 384,
				Timeout:   20 * time.Millisecond,
			}, zerolog.Nop())

			result := svc.TryEmbed(context.Background(), "hello")
			assert.False(t, result.OK())
			assert.Equal(t, tt.wantKind, result.Kind())

			vec := svc.Embed(context.Background(), "hello")
			assert.NotNil(t, vec)
			assert.Empty(t, vec)
		})
	}
}

func TestEmbedSkipsBlankText(t *testing.T) {
	client := &MockClient{EmbedFunc: func(_ context.Context, _ []string) ([][]float32, error) {
		return [][]float32{constVector(384, 1)}, nil
	}}
	svc := newTestService(client, nil)

	assert.Empty(t, svc.Embed(context.Background(), "   "))
	assert.Equal(t, 0, client.calls)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache, err := NewMemoryCache(2)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("a", []float32{1, 2}, time.Minute)
	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, got)

	got[0] = 99
	again, _ := cache.Get("a")
	assert.Equal(t, float32(1), again[0])

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("a")
	assert.False(t, ok)
}

func TestCacheKeyDependsOnModel(t *testing.T) {
	assert.NotEqual(t, CacheKey("a", "text"), CacheKey("b", "text"))
	assert.Equal(t, CacheKey("a", "text"), CacheKey("a", "text"))
	assert.Len(t, CacheKey("a", "text"), 64)
}
