package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"conversiq-server/internal/domain/conversation"
	"conversiq-server/internal/interfaces/httpserver/requests"
	"conversiq-server/internal/interfaces/httpserver/responses"
	"conversiq-server/internal/utils/platformerrors"
)

// ConversationService is the domain surface used by the conversation endpoints.
type ConversationService interface {
	Create(ctx context.Context, title string) (*conversation.Conversation, error)
	List(ctx context.Context) ([]*conversation.Conversation, error)
	Get(ctx context.Context, id uint) (*conversation.Conversation, error)
	Update(ctx context.Context, id uint, update conversation.Update) (*conversation.Conversation, error)
	Delete(ctx context.Context, id uint) error
	AddMessage(ctx context.Context, conversationID uint, content string) (*conversation.AddMessageResult, error)
	End(ctx context.Context, id uint) (*conversation.Conversation, error)
}

// ConversationHandler serves the conversation CRUD and action endpoints.
type ConversationHandler struct {
	service ConversationService
	log     zerolog.Logger
}

func NewConversationHandler(service ConversationService, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

// List returns every conversation, newest first.
func (h *ConversationHandler) List(c *gin.Context) {
	convs, err := h.service.List(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "Failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationListResponse(convs))
}

// Create starts a conversation.
func (h *ConversationHandler) Create(c *gin.Context) {
	var req requests.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body")
		return
	}

	conv, err := h.service.Create(c.Request.Context(), req.Title)
	if err != nil {
		responses.HandleError(c, err, "Failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, responses.NewConversationResponse(conv))
}

// Get returns one conversation with its messages.
func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	conv, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "Failed to get conversation")
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationResponse(conv))
}

// Update applies a partial update of title and status.
func (h *ConversationHandler) Update(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body")
		return
	}

	update := conversation.Update{Title: req.Title}
	if req.Status != nil {
		status := conversation.Status(*req.Status)
		if !status.Valid() {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "status must be one of: active, ended")
			return
		}
		update.Status = &status
	}

	conv, err := h.service.Update(c.Request.Context(), id, update)
	if err != nil {
		responses.HandleError(c, err, "Failed to update conversation")
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationResponse(conv))
}

// Delete removes a conversation and its messages.
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		responses.HandleError(c, err, "Failed to delete conversation")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMessage stores the user's message and the assistant's reply.
func (h *ConversationHandler) AddMessage(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	// A missing or unparsable body is treated as empty content so that an
	// unknown conversation still reports 404 first.
	var req requests.AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Uint("conversation_id", id).Msg("add_message body not bound")
	}

	result, err := h.service.AddMessage(c.Request.Context(), id, req.Content)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": conversation.MessageContentRequired})
			return
		}
		responses.HandleError(c, err, "Failed to add message")
		return
	}
	c.JSON(http.StatusCreated, responses.NewAddMessageResponse(result))
}

// End closes the conversation and stores its summary.
func (h *ConversationHandler) End(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}

	conv, err := h.service.End(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "Failed to end conversation")
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationResponse(conv))
}

// conversationID parses the :id path parameter. Non-numeric ids can never
// match a row, so they are reported as not found.
func conversationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "conversation not found")
		return 0, false
	}
	return uint(id), true
}
