package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/models"
)

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	require.Len(t, msg.Parts, 1)
	return msg.Parts[0].(llms.TextContent).Text
}

func TestBuildMessagesShape(t *testing.T) {
	history := []models.HistoryItem{
		{Role: models.RoleUser, Parts: []models.HistoryPart{{Text: "What is in the report?"}}},
		{Role: models.RoleModel, Parts: []models.HistoryPart{{Text: "It covers quarterly sales."}}},
	}
	msgs := BuildMessages("sales rose 10%", history, "By how much?")
	require.Len(t, msgs, 4)

	assert.Equal(t, llms.ChatMessageTypeSystem, msgs[0].Role)
	assert.Contains(t, textOf(t, msgs[0]), "Context:\nsales rose 10%")

	assert.Equal(t, llms.ChatMessageTypeHuman, msgs[1].Role)
	assert.Equal(t, "What is in the report?", textOf(t, msgs[1]))
	assert.Equal(t, llms.ChatMessageTypeAI, msgs[2].Role)
	assert.Equal(t, "It covers quarterly sales.", textOf(t, msgs[2]))

	assert.Equal(t, llms.ChatMessageTypeHuman, msgs[3].Role)
	assert.Equal(t, "By how much?", textOf(t, msgs[3]))
}

func TestBuildMessagesEmptyContextUsesPlaceholder(t *testing.T) {
	msgs := BuildMessages("", nil, "anything?")
	require.Len(t, msgs, 2)
	assert.Contains(t, textOf(t, msgs[0]), noContextPlaceholder)
}

func TestBuildMessagesMultiPartHistoryTurn(t *testing.T) {
	history := []models.HistoryItem{
		{Role: models.RoleUser, Parts: []models.HistoryPart{{Text: "first"}, {Text: "second"}}},
	}
	msgs := BuildMessages("ctx", history, "q")
	require.Len(t, msgs, 3)
	require.Len(t, msgs[1].Parts, 2)
	assert.Equal(t, "first", msgs[1].Parts[0].(llms.TextContent).Text)
	assert.Equal(t, "second", msgs[1].Parts[1].(llms.TextContent).Text)
}

func TestBuildMessagesContextStaysOutOfHistory(t *testing.T) {
	history := []models.HistoryItem{
		{Role: models.RoleUser, Parts: []models.HistoryPart{{Text: "earlier question"}}},
	}
	msgs := BuildMessages("secret context", history, "q")
	assert.NotContains(t, textOf(t, msgs[1]), "secret context")
	assert.NotContains(t, textOf(t, msgs[2]), "secret context")
}
