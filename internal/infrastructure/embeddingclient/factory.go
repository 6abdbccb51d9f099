package embeddingclient

import (
	"github.com/rs/zerolog"

	"conversiq-server/internal/config"
	"conversiq-server/internal/domain/embedding"
)

// NewFromConfig returns the client selected by EMBEDDING_PROVIDER.
func NewFromConfig(cfg *config.Config, log zerolog.Logger) embedding.Client {
	if cfg.EmbeddingProvider == "openai" {
		return NewOpenAIClient(cfg.EmbeddingServiceURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingTimeout)
	}
	return NewTEIClient(cfg.EmbeddingServiceURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingTimeout, log)
}
