package conversationrepo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	domain "conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/infrastructure/database"
	"conversiq-server/internal/utils/platformerrors"
)

// openTestDB connects to TEST_DATABASE_URL (a pgvector-enabled Postgres) and
// applies migrations; the test is skipped when it is not set.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(database.Config{WriteDSN: dsn}, zerolog.Nop())
	require.NoError(t, err)
	_, err = database.Migrate(context.Background(), db, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Exec("TRUNCATE messages, conversations RESTART IDENTITY CASCADE").Error)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func unit(dim, axis int, secondary float32) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	v[(axis+1)%dim] = secondary
	return v
}

func seed(t *testing.T, convs *ConversationRepository, msgs *MessageRepository, title string) *domain.Conversation {
	t.Helper()
	conv := &domain.Conversation{Title: title, Status: domain.StatusActive, StartTime: time.Now().UTC()}
	require.NoError(t, convs.Create(context.Background(), conv))
	return conv
}

func addMessage(t *testing.T, msgs *MessageRepository, convID uint, sender domain.Sender, content string, vec []float32) *domain.Message {
	t.Helper()
	m := &domain.Message{ConversationID: convID, Sender: sender, Content: content, Timestamp: time.Now().UTC()}
	require.NoError(t, msgs.Create(context.Background(), m))
	if vec != nil {
		require.NoError(t, msgs.UpdateEmbedding(context.Background(), m.ID, vec))
	}
	return m
}

func TestSearchRanksAndFilters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	convs := NewConversationRepository(db)
	msgs := NewMessageRepository(db)

	a := seed(t, convs, msgs, "A")
	b := seed(t, convs, msgs, "B")

	best := addMessage(t, msgs, a.ID, domain.SenderUser, "closest", unit(384, 0, 0))
	second := addMessage(t, msgs, a.ID, domain.SenderAI, "close", unit(384, 0, 0.5))
	other := addMessage(t, msgs, b.ID, domain.SenderUser, "other conversation", unit(384, 0, 0.1))
	addMessage(t, msgs, a.ID, domain.SenderUser, "pending", nil)

	matches, err := msgs.Search(ctx, unit(384, 0, 0), 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, best.ID, matches[0].Message.ID)
	assert.Equal(t, other.ID, matches[1].Message.ID)
	assert.Equal(t, second.ID, matches[2].Message.ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-5)

	scoped, err := msgs.Search(ctx, unit(384, 0, 0), 10, &a.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	for _, m := range scoped {
		assert.Equal(t, a.ID, m.Message.ConversationID)
	}

	pending, err := msgs.CountPendingEmbedding(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestSearchBreaksTiesByID(t *testing.T) {
	db := openTestDB(t)
	msgs := NewMessageRepository(db)
	convs := NewConversationRepository(db)
	conv := seed(t, convs, msgs, "ties")

	first := addMessage(t, msgs, conv.ID, domain.SenderUser, "same", unit(384, 3, 0))
	second := addMessage(t, msgs, conv.ID, domain.SenderUser, "same again", unit(384, 3, 0))

	matches, err := msgs.Search(context.Background(), unit(384, 3, 0), 5, &conv.ID)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, first.ID, matches[0].Message.ID)
	assert.Equal(t, second.ID, matches[1].Message.ID)
}

func TestEndAndDeleteConversation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	convs := NewConversationRepository(db)
	msgs := NewMessageRepository(db)

	conv := seed(t, convs, msgs, "to end")
	addMessage(t, msgs, conv.ID, domain.SenderUser, "hello", nil)

	endTime := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, convs.MarkEnded(ctx, conv.ID, endTime, "summary"))

	got, err := convs.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, got.Status)
	assert.Equal(t, "summary", *got.Summary)
	assert.True(t, endTime.Equal(*got.EndTime))
	assert.Len(t, got.Messages, 1)

	require.NoError(t, convs.Delete(ctx, conv.ID))
	left, err := msgs.ListByConversationID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = convs.FindByID(ctx, conv.ID)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}
