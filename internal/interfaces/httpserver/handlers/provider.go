package handlers

import (
	"github.com/rs/zerolog"

	"conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/domain/recall"
)

// Provider wires HTTP handlers.
type Provider struct {
	Conversations *ConversationHandler
	Search        *SearchHandler
}

func NewProvider(conversations *conversation.Service, recaller *recall.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Conversations: NewConversationHandler(conversations, log),
		Search:        NewSearchHandler(recaller, log),
	}
}
