package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/domain/recall"
	"conversiq-server/internal/interfaces/httpserver/responses"
)

const missingQuery = "Missing ?q="

// RecallService is the domain surface used by the search endpoints.
type RecallService interface {
	Search(ctx context.Context, query string, limit int, conversationID *uint) ([]conversation.Match, error)
	Recall(ctx context.Context, query string, conversationID *uint) ([]conversation.Match, error)
}

// SearchHandler serves semantic search and recall.
type SearchHandler struct {
	service RecallService
	log     zerolog.Logger
}

func NewSearchHandler(service RecallService, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		log:     log.With().Str("handler", "search").Logger(),
	}
}

// Search returns the messages most similar to ?q= across all conversations.
func (h *SearchHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		responses.HandleDetail(c, http.StatusBadRequest, missingQuery)
		return
	}

	matches, err := h.service.Search(c.Request.Context(), q, recall.SearchLimit, nil)
	if err != nil {
		responses.HandleError(c, err, "Failed to search messages")
		return
	}
	c.JSON(http.StatusOK, responses.NewMatchListResponse(matches))
}

// Recall returns the best matches for ?q=, optionally within ?conversation=.
func (h *SearchHandler) Recall(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		responses.HandleDetail(c, http.StatusBadRequest, missingQuery)
		return
	}

	var conversationID *uint
	if raw := strings.TrimSpace(c.Query("conversation")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			responses.HandleDetail(c, http.StatusBadRequest, "Invalid conversation id")
			return
		}
		v := uint(id)
		conversationID = &v
	}

	matches, err := h.service.Recall(c.Request.Context(), q, conversationID)
	if err != nil {
		responses.HandleError(c, err, "Failed to recall context")
		return
	}
	c.JSON(http.StatusOK, responses.RecallResponse{
		Query:        q,
		Conversation: conversationID,
		Matches:      responses.NewMatchListResponse(matches),
	})
}
