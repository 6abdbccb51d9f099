package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"conversiq-server/internal/domain/backfill"
	"conversiq-server/internal/domain/embedding"
	"conversiq-server/internal/infrastructure/cache"
	"conversiq-server/internal/infrastructure/database"
	"conversiq-server/internal/infrastructure/embeddingclient"
	"conversiq-server/internal/infrastructure/repository/conversationrepo"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill-embeddings",
	Short: "Embed every message that has no embedding yet",
	Long: `Walks pending-embedding messages in id order, batch by batch, and stores
an embedding for each one. Messages the embedding service cannot handle stay
pending so the command can simply be run again.`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().Int("batch-size", 0, "Messages per batch (default EMBEDDING_BACKFILL_BATCH_SIZE)")
	backfillCmd.Flags().Int("concurrency", 0, "Parallel embedding calls (default EMBEDDING_BACKFILL_CONCURRENCY)")
	backfillCmd.Flags().Bool("migrate", false, "Apply pending migrations first")
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	ctx := cmd.Context()

	if v, _ := cmd.Flags().GetInt("batch-size"); v > 0 {
		cfg.BackfillBatchSize = v
	}
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		cfg.BackfillConcurrency = v
	}

	db, err := database.Connect(database.ConfigFromEnv(cfg), log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if _, err := database.Migrate(ctx, db, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	var redisCache *cache.RedisCache
	if cfg.EmbeddingCacheType == "redis" {
		if redisCache, err = cache.NewRedisCache(cfg.RedisURL, log); err != nil {
			return err
		}
		defer func() { _ = redisCache.Close() }()
	}
	embeddingCache, err := cache.NewEmbeddingCache(cfg, redisCache)
	if err != nil {
		return err
	}

	embedder := embedding.NewService(embeddingclient.NewFromConfig(cfg, log), embeddingCache, embedding.Config{
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
		Timeout:   cfg.EmbeddingTimeout,
		CacheType: cfg.EmbeddingCacheType,
		CacheTTL:  cfg.EmbeddingCacheTTL,
	}, log)

	svc := backfill.NewService(conversationrepo.NewMessageRepository(db), embedder, cfg.BackfillBatchSize, cfg.BackfillConcurrency, log)

	out := cmd.OutOrStdout()
	progress, err := svc.Run(ctx, progressPrinter(out))
	if err != nil {
		return err
	}
	printSummary(out, progress)
	return nil
}

func progressPrinter(out io.Writer) backfill.Reporter {
	return func(p backfill.Progress) {
		if p.Processed == 0 {
			if p.Total > 0 {
				fmt.Fprintf(out, "Backfilling %d messages...\n", p.Total)
			}
			return
		}
		fmt.Fprintf(out, "%d/%d done\n", p.Processed, p.Total)
	}
}

func printSummary(out io.Writer, p backfill.Progress) {
	switch {
	case p.Total == 0:
		fmt.Fprintln(out, "No messages are pending embedding.")
	case p.Failed == 0:
		fmt.Fprintf(out, "All embeddings backfilled successfully (%d messages).\n", p.Embedded)
	default:
		fmt.Fprintf(out, "Backfill finished: %s. Failed messages stay pending; run the command again once the embedding service is healthy.\n", p)
	}
}
