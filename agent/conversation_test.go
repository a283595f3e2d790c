package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cora/llm"
)

func TestPendingToolCalls(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewUserMessage("hi"))
	assert.Empty(t, conv.PendingToolCalls())

	conv.Append(NewAssistantMessage("", []ToolCall{
		{ID: "c1", Name: "read_file"},
		{ID: "c2", Name: "grep"},
	}))
	pending := conv.PendingToolCalls()
	require.Len(t, pending, 2)
	assert.Equal(t, "c1", pending[0].ID)
	assert.Equal(t, "c2", pending[1].ID)

	conv.Append(NewToolResultMessage("c1", "read_file", "content", false))
	pending = conv.PendingToolCalls()
	require.Len(t, pending, 1)
	assert.Equal(t, "c2", pending[0].ID)

	conv.Append(NewToolResultMessage("c2", "grep", CancellationMarker, true))
	assert.Empty(t, conv.PendingToolCalls())
}

func TestPendingToolCallsOnlyLatestAssistant(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewUserMessage("hi"))
	conv.Append(NewAssistantMessage("", []ToolCall{{ID: "old", Name: "grep"}}))
	conv.Append(NewToolResultMessage("old", "grep", "x", false))
	conv.Append(NewAssistantMessage("", []ToolCall{{ID: "new", Name: "glob"}}))

	pending := conv.PendingToolCalls()
	require.Len(t, pending, 1)
	assert.Equal(t, "new", pending[0].ID)
}

func TestMessagesReturnsCopy(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewUserMessage("hi"))

	msgs := conv.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "hi", conv.Messages()[0].Content)
}

func TestLastAssistant(t *testing.T) {
	conv := NewConversation()
	_, ok := conv.LastAssistant()
	assert.False(t, ok)

	conv.Append(NewUserMessage("q"))
	conv.Append(NewAssistantMessage("first", nil))
	conv.Append(NewUserMessage("q2"))
	conv.Append(NewAssistantMessage("second", nil))

	last, ok := conv.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)
}

func TestClear(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewUserMessage("hi"))
	conv.Clear()
	assert.Equal(t, 0, conv.Len())
}

func TestToLLMMessages(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewUserMessage("question"))
	conv.Append(NewAssistantMessage("thinking", []ToolCall{
		{ID: "c1", Name: "grep", Arguments: []byte(`{"pattern":"x"}`)},
	}))
	conv.Append(NewToolResultMessage("c1", "grep", "match", false))

	msgs := conv.toLLMMessages()
	require.Len(t, msgs, 3)

	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, "question", msgs[0].TextContent())

	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].Content, 2)
	assert.Equal(t, llm.ContentText, msgs[1].Content[0].Kind)
	assert.Equal(t, llm.ContentToolCall, msgs[1].Content[1].Kind)
	assert.Equal(t, "c1", msgs[1].Content[1].ToolCall.ID)

	assert.Equal(t, llm.RoleTool, msgs[2].Role)
}
