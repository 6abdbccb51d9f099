package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"conversiq-server/internal/domain/conversation"
)

func TestMessageConversionKeepsPendingEmbeddingNull(t *testing.T) {
	msg := &conversation.Message{
		ConversationID: 3,
		Sender:         conversation.SenderUser,
		Content:        "Hello",
		Timestamp:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	entity := NewSchemaMessage(msg)
	assert.Nil(t, entity.Embedding)
	assert.Nil(t, entity.Metadata)

	back := entity.EtoD()
	assert.False(t, back.HasEmbedding())
	assert.Equal(t, conversation.SenderUser, back.Sender)
	assert.Equal(t, msg.Timestamp, back.Timestamp)
}

func TestMessageConversionWithEmbeddingAndMetadata(t *testing.T) {
	msg := &conversation.Message{
		ID:        9,
		Sender:    conversation.SenderAI,
		Content:   "Hi",
		Embedding: []float32{0.6, 0.8},
		Metadata:  map[string]any{conversation.MetadataReplyStatus: "ok"},
	}

	entity := NewSchemaMessage(msg)
	if assert.NotNil(t, entity.Embedding) {
		assert.Equal(t, []float32{0.6, 0.8}, entity.Embedding.Slice())
	}

	back := entity.EtoD()
	assert.Equal(t, []float32{0.6, 0.8}, back.Embedding)
	assert.Equal(t, "ok", back.Metadata[conversation.MetadataReplyStatus])
}

func TestConversationEtoDIncludesMessages(t *testing.T) {
	summary := "done"
	entity := &Conversation{
		ID:      1,
		Title:   "New Chat",
		Status:  "ended",
		Summary: &summary,
		Messages: []Message{
			{ID: 1, ConversationID: 1, Sender: "user", Content: "a"},
			{ID: 2, ConversationID: 1, Sender: "ai", Content: "b"},
		},
	}

	conv := entity.EtoD()
	assert.True(t, conv.IsEnded())
	assert.Len(t, conv.Messages, 2)
	assert.Equal(t, "done", *conv.Summary)

	empty := (&Conversation{ID: 2, Title: "x", Status: "active"}).EtoD()
	assert.NotNil(t, empty.Messages)
	assert.Empty(t, empty.Messages)
}
