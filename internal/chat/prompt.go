package chat

import (
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/models"
)

// systemPrompt restricts answers to the retrieved context. An empty context
// makes the model state that it lacks the information; that behaviour lives
// here, not in pipeline logic.
const systemPrompt = `You are a document assistant. Answer questions using only the provided Context.
- If the answer is in the context, answer accurately and concisely.
- If the context does not contain the answer, say that the documents do not contain enough information to answer.
- Never invent facts that are not supported by the context.`

// noContextPlaceholder stands in for the context block when retrieval finds
// nothing, so the model still sees a well-formed prompt.
const noContextPlaceholder = "No relevant context found in the documents."

// BuildMessages assembles the generation request: the system instruction with
// the context block first, the replayed history in its original order and
// roles, and the question as the final user turn. Pure and deterministic; the
// context never mixes into history turns, so multi-turn replay stays
// well-formed however much the retrieved context changes between turns.
func BuildMessages(contextBlock string, history []models.HistoryItem, question string) []llms.MessageContent {
	if contextBlock == "" {
		contextBlock = noContextPlaceholder
	}
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem,
		systemPrompt+"\n\nContext:\n"+contextBlock))

	for _, item := range history {
		role := llms.ChatMessageTypeHuman
		if item.Role == models.RoleModel {
			role = llms.ChatMessageTypeAI
		}
		parts := make([]string, 0, len(item.Parts))
		for _, p := range item.Parts {
			parts = append(parts, p.Text)
		}
		messages = append(messages, llms.TextParts(role, parts...))
	}

	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))
	return messages
}
