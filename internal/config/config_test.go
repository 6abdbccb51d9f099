package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, "tei", cfg.EmbeddingProvider)
	assert.Equal(t, 384, cfg.EmbeddingDimension)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, cfg.GetDatabaseWriteDSN(), cfg.GetDatabaseReadDSN())
	assert.False(t, cfg.HasReadReplica())
	assert.Same(t, cfg, GetGlobal())
}

func TestLoadNormalizesAndOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", " OpenAI ")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DB_POSTGRESQL_READ1_DSN", "postgres://reader:pw@replica:5432/conversiq")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.EmbeddingProvider)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.HasReadReplica())
	assert.Equal(t, "postgres://reader:pw@replica:5432/conversiq", cfg.GetDatabaseReadDSN())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown provider", key: "EMBEDDING_PROVIDER", val: "word2vec"},
		{name: "unknown cache", key: "EMBEDDING_CACHE_TYPE", val: "disk"},
		{name: "redis without url", key: "EMBEDDING_CACHE_TYPE", val: "redis"},
		{name: "zero dimension", key: "EMBEDDING_DIMENSION", val: "0"},
		{name: "zero llm timeout", key: "LLM_TIMEOUT", val: "0s"},
		{name: "interval not dividing an hour", key: "EMBEDDING_BACKFILL_INTERVAL_MINUTES", val: "7"},
		{name: "interval not whole hours", key: "EMBEDDING_BACKFILL_INTERVAL_MINUTES", val: "90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRedactedHidesSecrets(t *testing.T) {
	cfg := &Config{
		DBPostgresqlWriteDSN: "postgres://user:secret@db:5432/conversiq",
		LLMAPIKey:            "sk-123",
		APIKey:               "key",
	}

	out := cfg.Redacted()
	assert.Equal(t, "postgres://***@db:5432/conversiq", out.DBPostgresqlWriteDSN)
	assert.Equal(t, "***", out.LLMAPIKey)
	assert.Equal(t, "***", out.APIKey)
	assert.Equal(t, "", out.EmbeddingAPIKey)
	assert.Equal(t, "sk-123", cfg.LLMAPIKey)
}

func TestValidBackfillInterval(t *testing.T) {
	for _, minutes := range []int{1, 5, 15, 30, 60, 120, 360, 1440} {
		assert.True(t, ValidBackfillInterval(minutes), minutes)
	}
	for _, minutes := range []int{0, -5, 7, 45, 90, 300, 2880} {
		assert.False(t, ValidBackfillInterval(minutes), minutes)
	}
}
