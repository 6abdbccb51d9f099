package requests

// CreateConversationRequest is the body of POST /api/conversations/.
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// UpdateConversationRequest is the body of PATCH /api/conversations/{id}/.
type UpdateConversationRequest struct {
	Title  *string `json:"title"`
	Status *string `json:"status"`
}

// AddMessageRequest is the body of POST /api/conversations/{id}/add_message/.
type AddMessageRequest struct {
	Content string `json:"content"`
}
