//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"conversiq-server/internal/config"
	"conversiq-server/internal/domain/backfill"
	"conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/domain/embedding"
	"conversiq-server/internal/domain/llm"
	"conversiq-server/internal/domain/recall"
	"conversiq-server/internal/infrastructure/cache"
	"conversiq-server/internal/infrastructure/crontab"
	"conversiq-server/internal/infrastructure/embeddingclient"
	"conversiq-server/internal/infrastructure/repository/conversationrepo"
	"conversiq-server/internal/interfaces/httpserver"
	"conversiq-server/internal/interfaces/httpserver/handlers"
)

var repositorySet = wire.NewSet(
	conversationrepo.NewConversationRepository,
	conversationrepo.NewMessageRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.ConversationRepository)),
	wire.Bind(new(conversation.MessageRepository), new(*conversationrepo.MessageRepository)),
)

var domainSet = wire.NewSet(
	embeddingclient.NewFromConfig,
	cache.NewEmbeddingCache,
	provideEmbeddingService,
	provideChatProvider,
	provideGenerator,
	provideRecallService,
	provideBackfillService,
	conversation.NewService,
	wire.Bind(new(conversation.Embedder), new(*embedding.Service)),
	wire.Bind(new(conversation.Recaller), new(*recall.Service)),
	wire.Bind(new(conversation.ReplyGenerator), new(*llm.Generator)),
	wire.Bind(new(conversation.SummaryGenerator), new(*llm.Generator)),
)

// BuildApplication assembles the server with Wire.
func BuildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	wire.Build(
		provideDatabase,
		provideRedis,
		provideBackfillLocker,
		provideReadinessChecks,
		repositorySet,
		domainSet,
		wire.Bind(new(crontab.Backfiller), new(*backfill.Service)),
		crontab.NewCrontab,
		handlers.NewProvider,
		httpserver.New,
		NewApplication,
	)
	return nil, nil, nil
}
