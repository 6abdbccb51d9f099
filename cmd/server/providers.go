package main

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"conversiq-server/internal/config"
	"conversiq-server/internal/domain/backfill"
	"conversiq-server/internal/domain/embedding"
	"conversiq-server/internal/domain/llm"
	"conversiq-server/internal/domain/recall"
	"conversiq-server/internal/infrastructure/cache"
	"conversiq-server/internal/infrastructure/crontab"
	"conversiq-server/internal/infrastructure/database"
	"conversiq-server/internal/infrastructure/llmprovider"
	"conversiq-server/internal/infrastructure/repository/conversationrepo"
	"conversiq-server/internal/interfaces/httpserver"
)

func provideDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	db, err := database.Connect(database.ConfigFromEnv(cfg), log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}

	if cfg.AutoMigrate {
		if _, err := database.Migrate(ctx, db, log); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return db, cleanup, nil
}

// provideRedis returns nil when REDIS_URL is unset.
func provideRedis(cfg *config.Config, log zerolog.Logger) (*cache.RedisCache, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}
	redisCache, err := cache.NewRedisCache(cfg.RedisURL, log)
	if err != nil {
		return nil, nil, err
	}
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	}, nil
}

func provideBackfillLocker(redisCache *cache.RedisCache) crontab.Locker {
	if redisCache == nil {
		return nil
	}
	return redisCache
}

// provideEmbeddingService builds the shared embedder and checks the backend
// once. A failed check is only logged: embedding is best-effort.
func provideEmbeddingService(ctx context.Context, cfg *config.Config, client embedding.Client, embeddingCache embedding.Cache, log zerolog.Logger) *embedding.Service {
	svc := embedding.NewService(client, embeddingCache, embedding.Config{
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
		Timeout:   cfg.EmbeddingTimeout,
		CacheType: cfg.EmbeddingCacheType,
		CacheTTL:  cfg.EmbeddingCacheTTL,
	}, log)

	if cfg.ValidateEmbedding {
		validateCtx, cancel := context.WithTimeout(ctx, cfg.ValidateEmbeddingTimeout)
		defer cancel()
		if err := svc.Validate(validateCtx); err != nil {
			log.Warn().Err(err).
				Str("provider", cfg.EmbeddingProvider).
				Str("url", cfg.EmbeddingServiceURL).
				Msg("embedding service validation failed; messages will stay pending-embedding until it recovers")
		} else {
			log.Info().Str("model", cfg.EmbeddingModel).Int("dimension", cfg.EmbeddingDimension).Msg("embedding service validated")
		}
	}
	return svc
}

func provideChatProvider(cfg *config.Config) llm.Provider {
	return llmprovider.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMTimeout)
}

func provideGenerator(cfg *config.Config, provider llm.Provider, log zerolog.Logger) *llm.Generator {
	return llm.NewGenerator(provider, llm.GeneratorConfig{
		Model:            cfg.LLMModel,
		Temperature:      cfg.LLMTemperature,
		ReplyMaxTokens:   cfg.LLMReplyMaxTokens,
		SummaryMaxTokens: cfg.LLMSummaryMaxTokens,
		Timeout:          cfg.LLMTimeout,
	}, log)
}

func provideRecallService(cfg *config.Config, embedder *embedding.Service, messages *conversationrepo.MessageRepository, log zerolog.Logger) *recall.Service {
	return recall.NewService(embedder, messages, cfg.RecallTimeout, log)
}

func provideBackfillService(cfg *config.Config, messages *conversationrepo.MessageRepository, embedder *embedding.Service, log zerolog.Logger) *backfill.Service {
	return backfill.NewService(messages, embedder, cfg.BackfillBatchSize, cfg.BackfillConcurrency, log)
}

func provideReadinessChecks(db *gorm.DB, redisCache *cache.RedisCache) []httpserver.ReadinessCheck {
	checks := []httpserver.ReadinessCheck{{
		Name:  "database",
		Check: func(ctx context.Context) error { return database.Ping(ctx, db) },
	}}
	if redisCache != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "redis", Check: redisCache.HealthCheck})
	}
	return checks
}
