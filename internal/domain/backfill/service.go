package backfill

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/infrastructure/metrics"
)

// ReportEvery is how often, in processed messages, progress is reported.
const ReportEvery = 10

// Progress describes a backfill run.
type Progress struct {
	Processed int
	Total     int
	Embedded  int
	Failed    int
}

func (p Progress) String() string {
	return fmt.Sprintf("%d/%d done (%d embedded, %d failed)", p.Processed, p.Total, p.Embedded, p.Failed)
}

// Reporter receives progress once before any work (Processed == 0), every
// ReportEvery messages, and once at the end.
type Reporter func(Progress)

// Service embeds messages that are still pending-embedding.
type Service struct {
	messages    conversation.MessageRepository
	embedder    conversation.Embedder
	batchSize   int
	concurrency int
	log         zerolog.Logger
}

// NewService creates a backfill service.
func NewService(messages conversation.MessageRepository, embedder conversation.Embedder, batchSize, concurrency int, log zerolog.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 50
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		messages:    messages,
		embedder:    embedder,
		batchSize:   batchSize,
		concurrency: concurrency,
		log:         log.With().Str("component", "embedding-backfill").Logger(),
	}
}

// Run walks pending messages in id order, in batches, and stores an embedding
// for each one the embedding service can handle. Messages that fail stay
// pending for the next run.
func (s *Service) Run(ctx context.Context, report Reporter) (Progress, error) {
	total, err := s.messages.CountPendingEmbedding(ctx)
	if err != nil {
		return Progress{}, fmt.Errorf("count pending messages: %w", err)
	}
	metrics.BackfillPending.Set(float64(total))

	progress := Progress{Total: int(total)}
	s.log.Info().Int64("pending", total).Msg("backfilling embeddings")
	if report != nil {
		report(progress)
	}
	if total == 0 {
		return progress, nil
	}

	var (
		mu           sync.Mutex
		lastReported = -1
	)
	record := func(embedded bool) {
		mu.Lock()
		defer mu.Unlock()
		progress.Processed++
		if embedded {
			progress.Embedded++
		} else {
			progress.Failed++
		}
		if report != nil && progress.Processed%ReportEvery == 0 {
			lastReported = progress.Processed
			report(progress)
		}
	}

	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return progress, err
		}

		batch, err := s.messages.ListPendingEmbedding(ctx, afterID, s.batchSize)
		if err != nil {
			return progress, fmt.Errorf("list pending messages: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].ID

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for i := range batch {
			msg := batch[i]
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				record(s.embedOne(gctx, msg))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return progress, err
		}

		if len(batch) < s.batchSize {
			break
		}
	}

	if report != nil && lastReported != progress.Processed {
		report(progress)
	}
	s.log.Info().
		Int("processed", progress.Processed).
		Int("embedded", progress.Embedded).
		Int("failed", progress.Failed).
		Msg("embedding backfill finished")
	return progress, nil
}

func (s *Service) embedOne(ctx context.Context, msg conversation.Message) bool {
	vector := s.embedder.Embed(ctx, msg.Content)
	if len(vector) == 0 {
		metrics.RecordBackfill("failed")
		return false
	}
	if err := s.messages.UpdateEmbedding(ctx, msg.ID, vector); err != nil {
		s.log.Error().Err(err).Uint("message_id", msg.ID).Msg("failed to store embedding")
		metrics.RecordBackfill("failed")
		return false
	}
	metrics.RecordBackfill("embedded")
	return true
}
