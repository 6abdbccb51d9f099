package llm

import (
	"fmt"
	"strings"

	"conversiq-server/internal/domain/conversation"
)

const (
	replySystemPrompt   = "You are ConversIQ, a helpful memory-based chat assistant."
	summarySystemPrompt = "You are a helpful AI summarizer."

	// EmptyConversationSummary is stored when a conversation ends with no messages.
	EmptyConversationSummary = "No messages were exchanged in this conversation."
)

const replyPromptTemplate = `You are a helpful AI assistant called ConversIQ.
Use the recalled context below to stay consistent and memory-aware.

----
Previous context:
%s

User said:
%s
----`

const summaryPromptTemplate = `Summarize the following chat conversation in 4-5 concise sentences.
Highlight key topics, tone, and decisions made.

Conversation:
%s`

// BuildReplyMessages builds the persona and user prompt for a reply.
func BuildReplyMessages(recalledContext, userMessage string) []ChatMessage {
	return []ChatMessage{
		{Role: RoleSystem, Content: replySystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf(replyPromptTemplate, recalledContext, userMessage)},
	}
}

// BuildSummaryMessages builds the summarizer prompt over the ordered transcript.
func BuildSummaryMessages(messages []conversation.Message) []ChatMessage {
	return []ChatMessage{
		{Role: RoleSystem, Content: summarySystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf(summaryPromptTemplate, Transcript(messages))},
	}
}

// Transcript renders messages as "sender: content" lines.
func Transcript(messages []conversation.Message) string {
	lines := make([]string, 0, len(messages))
	for i := range messages {
		lines = append(lines, messages[i].TranscriptLine())
	}
	return strings.Join(lines, "\n")
}
