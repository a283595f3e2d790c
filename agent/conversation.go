package agent

import (
	"encoding/json"
	"time"

	"cora/llm"
)

// MessageRole discriminates between conversation entry types.
type MessageRole string

const (
	RoleUserMessage      MessageRole = "user"
	RoleAssistantMessage MessageRole = "assistant"
	RoleToolMessage      MessageRole = "tool"
)

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is a single entry in the conversation transcript.
type Message struct {
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`   // assistant messages only
	ToolCallID string      `json:"tool_call_id,omitempty"` // tool results only
	ToolName   string      `json:"tool_name,omitempty"`    // tool results only
	IsError    bool        `json:"is_error,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewUserMessage creates a user Message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUserMessage, Content: content, Timestamp: time.Now()}
}

// NewAssistantMessage creates an assistant Message, optionally carrying tool
// call requests.
func NewAssistantMessage(content string, toolCalls []ToolCall) Message {
	return Message{
		Role:      RoleAssistantMessage,
		Content:   content,
		ToolCalls: toolCalls,
		Timestamp: time.Now(),
	}
}

// NewToolResultMessage creates a tool result Message linked to its
// originating call.
func NewToolResultMessage(callID, toolName, content string, isError bool) Message {
	return Message{
		Role:       RoleToolMessage,
		Content:    content,
		ToolCallID: callID,
		ToolName:   toolName,
		IsError:    isError,
		Timestamp:  time.Now(),
	}
}

// Conversation is the append-only ordered transcript threaded through a loop
// run. Each loop instance owns its conversation exclusively; sub-agents get a
// disjoint fresh one.
type Conversation struct {
	messages []Message
}

// NewConversation creates an empty Conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds messages to the end of the transcript.
func (c *Conversation) Append(msgs ...Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// LastAssistant returns the most recent assistant message.
func (c *Conversation) LastAssistant() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistantMessage {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// Clear drops all messages, leaving the conversation empty.
func (c *Conversation) Clear() {
	c.messages = nil
}

// PendingToolCalls returns the tool calls of the latest assistant message
// that have no matching tool result yet, in call order. The backend expects
// every issued call identifier to be answered before the next model turn, so
// a cancelled run synthesizes results for exactly these.
func (c *Conversation) PendingToolCalls() []ToolCall {
	// Find the latest assistant message and collect results appended after it.
	last := -1
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistantMessage {
			last = i
			break
		}
	}
	if last == -1 {
		return nil
	}

	answered := make(map[string]bool)
	for _, msg := range c.messages[last+1:] {
		if msg.Role == RoleToolMessage {
			answered[msg.ToolCallID] = true
		}
	}

	var pending []ToolCall
	for _, call := range c.messages[last].ToolCalls {
		if !answered[call.ID] {
			pending = append(pending, call)
		}
	}
	return pending
}

// toLLMMessages converts the transcript into backend messages.
func (c *Conversation) toLLMMessages() []llm.Message {
	var out []llm.Message
	for _, msg := range c.messages {
		switch msg.Role {
		case RoleUserMessage:
			out = append(out, llm.UserMessage(msg.Content))
		case RoleAssistantMessage:
			m := llm.Message{Role: llm.RoleAssistant}
			if msg.Content != "" {
				m.Content = append(m.Content, llm.TextPart(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				m.Content = append(m.Content, llm.ToolCallPart(tc.ID, tc.Name, tc.Arguments))
			}
			out = append(out, m)
		case RoleToolMessage:
			out = append(out, llm.ToolResultMessage(msg.ToolCallID, msg.ToolName, msg.Content, msg.IsError))
		}
	}
	return out
}
