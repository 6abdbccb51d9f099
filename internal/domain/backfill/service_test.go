package backfill

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversiq-server/internal/domain/conversation"
)

// pendingStore is a MessageRepository holding only what backfill touches.
type pendingStore struct {
	mu       sync.Mutex
	messages map[uint]*conversation.Message
}

func newPendingStore(n int) *pendingStore {
	s := &pendingStore{messages: map[uint]*conversation.Message{}}
	for i := 1; i <= n; i++ {
		s.messages[uint(i)] = &conversation.Message{ID: uint(i), ConversationID: 1, Sender: conversation.SenderUser, Content: "message"}
	}
	return s
}

func (s *pendingStore) Create(ctx context.Context, m *conversation.Message) error { return nil }

func (s *pendingStore) UpdateEmbedding(ctx context.Context, id uint, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[id].Embedding = embedding
	return nil
}

func (s *pendingStore) ListByConversationID(ctx context.Context, conversationID uint) ([]conversation.Message, error) {
	return nil, nil
}

func (s *pendingStore) Search(ctx context.Context, query []float32, limit int, conversationID *uint) ([]conversation.Match, error) {
	return nil, nil
}

func (s *pendingStore) ListPendingEmbedding(ctx context.Context, afterID uint, limit int) ([]conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0)
	for id, m := range s.messages {
		if id > afterID && !m.HasEmbedding() {
			ids = append(ids, int(id))
		}
	}
	sort.Ints(ids)
	out := []conversation.Message{}
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		out = append(out, *s.messages[uint(id)])
	}
	return out, nil
}

func (s *pendingStore) CountPendingEmbedding(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if !m.HasEmbedding() {
			n++
		}
	}
	return n, nil
}

type MockEmbedder struct {
	EmbedFunc func(ctx context.Context, text string) []float32
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) []float32 {
	return m.EmbedFunc(ctx, text)
}

func TestRunEmbedsAllPendingAndReports(t *testing.T) {
	store := newPendingStore(25)
	embedder := &MockEmbedder{EmbedFunc: func(_ context.Context, _ string) []float32 { return []float32{1} }}
	svc := NewService(store, embedder, 7, 3, zerolog.Nop())

	var reports []Progress
	progress, err := svc.Run(context.Background(), func(p Progress) { reports = append(reports, p) })
	require.NoError(t, err)

	assert.Equal(t, Progress{Processed: 25, Total: 25, Embedded: 25}, progress)
	require.Len(t, reports, 4)
	assert.Equal(t, Progress{Total: 25}, reports[0])
	assert.Equal(t, 10, reports[1].Processed)
	assert.Equal(t, 20, reports[2].Processed)
	assert.Equal(t, 25, reports[3].Processed)

	pending, _ := store.CountPendingEmbedding(context.Background())
	assert.Zero(t, pending)
}

func TestRunLeavesFailuresPending(t *testing.T) {
	store := newPendingStore(4)
	store.messages[2].Content = "fail"
	embedder := &MockEmbedder{EmbedFunc: func(_ context.Context, text string) []float32 {
		if strings.Contains(text, "fail") {
			return []float32{}
		}
		return []float32{1}
	}}
	svc := NewService(store, embedder, 2, 1, zerolog.Nop())

	var reports []Progress
	progress, err := svc.Run(context.Background(), func(p Progress) { reports = append(reports, p) })
	require.NoError(t, err)

	assert.Equal(t, 4, progress.Processed)
	assert.Equal(t, 3, progress.Embedded)
	assert.Equal(t, 1, progress.Failed)
	require.Len(t, reports, 2)
	assert.Zero(t, reports[0].Processed)
	assert.Equal(t, 4, reports[1].Processed)
	assert.False(t, store.messages[2].HasEmbedding())
}

func TestRunWithNothingPending(t *testing.T) {
	svc := NewService(newPendingStore(0), &MockEmbedder{}, 10, 2, zerolog.Nop())

	called := 0
	progress, err := svc.Run(context.Background(), func(Progress) { called++ })
	require.NoError(t, err)
	assert.Equal(t, Progress{}, progress)
	assert.Equal(t, 1, called)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newPendingStore(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(store, &MockEmbedder{EmbedFunc: func(_ context.Context, _ string) []float32 { return []float32{1} }}, 2, 1, zerolog.Nop())
	_, err := svc.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
