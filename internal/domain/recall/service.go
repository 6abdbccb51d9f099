package recall

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/infrastructure/metrics"
)

const (
	// SearchLimit is the number of matches returned by global search.
	SearchLimit = 10
	// RecallLimit is the number of matches fetched when recalling context.
	RecallLimit = 5
	// ContextMatches is how many recalled matches make it into the prompt.
	ContextMatches = 3
)

// Searcher ranks stored message vectors against a query vector.
type Searcher interface {
	Search(ctx context.Context, query []float32, limit int, conversationID *uint) ([]conversation.Match, error)
}

// Service runs semantic search and assembles recall context.
type Service struct {
	embedder conversation.Embedder
	searcher Searcher
	timeout  time.Duration
	log      zerolog.Logger
}

// NewService creates a recall service. timeout bounds a whole recall.
func NewService(embedder conversation.Embedder, searcher Searcher, timeout time.Duration, log zerolog.Logger) *Service {
	return &Service{
		embedder: embedder,
		searcher: searcher,
		timeout:  timeout,
		log:      log.With().Str("component", "recall-service").Logger(),
	}
}

// Search embeds the query and returns up to limit matches, optionally scoped
// to one conversation. An empty query vector yields no matches.
func (s *Service) Search(ctx context.Context, query string, limit int, conversationID *uint) ([]conversation.Match, error) {
	vector := s.embedder.Embed(ctx, query)
	if len(vector) == 0 {
		return []conversation.Match{}, nil
	}

	start := time.Now()
	matches, err := s.searcher.Search(ctx, vector, limit, conversationID)
	metrics.RecordVectorSearch(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []conversation.Match{}
	}
	return matches, nil
}

// Recall returns the RecallLimit best matches within the recall timeout.
func (s *Service) Recall(ctx context.Context, query string, conversationID *uint) ([]conversation.Match, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.Search(ctx, query, RecallLimit, conversationID)
}

// RecallContext builds the context block for a reply. It never fails: any
// error produces an empty context. excludeMessageID drops the message the
// query was taken from.
func (s *Service) RecallContext(ctx context.Context, query string, conversationID uint, excludeMessageID uint) conversation.RecalledContext {
	matches, err := s.Recall(ctx, query, &conversationID)
	if err != nil {
		s.log.Warn().Err(err).Uint("conversation_id", conversationID).Msg("recall failed, continuing without context")
		return conversation.RecalledContext{}
	}

	filtered := matches[:0:0]
	for _, m := range matches {
		if excludeMessageID != 0 && m.Message.ID == excludeMessageID {
			continue
		}
		filtered = append(filtered, m)
	}

	text, ids := Assemble(filtered, ContextMatches)
	return conversation.RecalledContext{Text: text, MessageIDs: ids}
}

// Assemble formats the first n matches as "sender: content" lines in rank order.
func Assemble(matches []conversation.Match, n int) (string, []uint) {
	if len(matches) > n {
		matches = matches[:n]
	}
	if len(matches) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(matches))
	ids := make([]uint, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, m.Message.TranscriptLine())
		ids = append(ids, m.Message.ID)
	}
	return strings.Join(lines, "\n"), ids
}
