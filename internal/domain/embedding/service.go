package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"conversiq-server/internal/domain/outcome"
	"conversiq-server/internal/infrastructure/metrics"
)

// Config controls the embedding service.
type Config struct {
	Model     string
	Dimension int
	Timeout   time.Duration
	CacheType string
	CacheTTL  time.Duration
}

// Service produces L2-normalized vectors of a fixed dimension. It is created
// once at startup and shared by every request.
type Service struct {
	client Client
	cache  Cache
	cfg    Config
	log    zerolog.Logger
}

// NewService creates the embedding service.
func NewService(client Client, cache Cache, cfg Config, log zerolog.Logger) *Service {
	if cache == nil {
		cache = NewNoOpsCache()
	}
	if cfg.CacheType == "" {
		cfg.CacheType = "noop"
	}
	return &Service{
		client: client,
		cache:  cache,
		cfg:    cfg,
		log:    log.With().Str("component", "embedding-service").Logger(),
	}
}

// Dimension returns the configured vector length.
func (s *Service) Dimension() int {
	return s.cfg.Dimension
}

// Embed returns the vector for text, or an empty vector when anything goes wrong.
func (s *Service) Embed(ctx context.Context, text string) []float32 {
	result := s.TryEmbed(ctx, text)
	if !result.OK() {
		s.log.Warn().Err(result.Err()).Str("failure_kind", string(result.Kind())).Msg("embedding failed")
		return []float32{}
	}
	return result.Value()
}

// TryEmbed performs a single bounded attempt and reports why it failed.
func (s *Service) TryEmbed(ctx context.Context, text string) outcome.Result[[]float32] {
	if strings.TrimSpace(text) == "" {
		return outcome.Failure[[]float32](outcome.KindMalformed, &outcome.MalformedError{Reason: "empty input text"})
	}

	key := CacheKey(s.cfg.Model, text)
	if cached, ok := s.cache.Get(key); ok && len(cached) == s.cfg.Dimension {
		metrics.RecordCacheHit(s.cfg.CacheType)
		return outcome.Success(cached)
	}
	metrics.RecordCacheMiss(s.cfg.CacheType)

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	vectors, err := s.client.Embed(callCtx, []string{text})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		result := outcome.FromError[[]float32](err)
		metrics.RecordEmbedding(string(result.Kind()), elapsed)
		return result
	}

	if len(vectors) != 1 {
		metrics.RecordEmbedding(string(outcome.KindMalformed), elapsed)
		return outcome.Failure[[]float32](outcome.KindMalformed,
			&outcome.MalformedError{Reason: fmt.Sprintf("expected 1 vector, got %d", len(vectors))})
	}

	vector, err := s.normalize(vectors[0])
	if err != nil {
		metrics.RecordEmbedding(string(outcome.KindMalformed), elapsed)
		return outcome.Failure[[]float32](outcome.KindMalformed, err)
	}

	metrics.RecordEmbedding("ok", elapsed)
	s.cache.Set(key, vector, s.cfg.CacheTTL)
	return outcome.Success(vector)
}

// Validate checks the backend at startup. Failures are reported, not fatal.
func (s *Service) Validate(ctx context.Context) error {
	return s.client.ValidateServer(ctx, s.cfg.Dimension)
}

func (s *Service) normalize(vector []float32) ([]float32, error) {
	if len(vector) != s.cfg.Dimension {
		return nil, &outcome.MalformedError{
			Reason: fmt.Sprintf("expected %d dimensions, got %d", s.cfg.Dimension, len(vector)),
		}
	}
	return Normalize(vector)
}

// Normalize scales vector to unit length.
func Normalize(vector []float32) ([]float32, error) {
	var sum float64
	for _, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, &outcome.MalformedError{Reason: "vector contains non-finite values"}
		}
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil, &outcome.MalformedError{Reason: "zero vector"}
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(float64(v) / norm)
	}
	return out, nil
}
