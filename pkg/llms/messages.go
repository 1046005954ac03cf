package llms

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// Role is the type of chat message.
type Role string

const (
	// RoleSystem is the system prompt.
	RoleSystem Role = "system"
	// RoleUser is a message sent by the user.
	RoleUser Role = "user"
	// RoleAssistant is a message sent by the model: text, tool calls, or both.
	RoleAssistant Role = "assistant"
	// RoleTool is a tool execution result fed back to the model.
	RoleTool Role = "tool"
)

// ToolCall is a model-issued request to invoke a tool.
type ToolCall struct {
	// ID is the unique identifier of the tool call.
	// Providers that do not assign one get a synthesized id scoped to the request.
	ID string `json:"id"`
	// Name is the name of the tool to invoke.
	Name string `json:"name"`
	// Arguments is a JSON document with the call arguments.
	Arguments string `json:"arguments"`
}

func (tc ToolCall) String() string {
	return fmt.Sprintf("ToolCall: %s (%s), input: %s", tc.ID, tc.Name, tc.Arguments)
}

// ToolResult is the outcome of executing a tool call.
type ToolResult struct {
	// CallID is the id of the tool call this result is for.
	CallID string `json:"call_id"`
	// Name is the name of the tool that was called.
	Name string `json:"name"`
	// Content is the textual content of the result,
	// or the failure description when IsError is set.
	Content string `json:"content"`
	// IsError reports a contained tool failure,
	// fed back to the model rather than raised.
	IsError bool `json:"is_error,omitempty"`
}

func (tr ToolResult) String() string {
	return fmt.Sprintf("ToolResult: %s (%s), size: %d, error: %t", tr.CallID, tr.Name, len(tr.Content), tr.IsError)
}

// ToolSpec is the normalized schema of a registered tool,
// translated by each adapter into the provider's function declaration format.
type ToolSpec struct {
	// Name is the unique name of the tool.
	Name string `json:"name"`
	// Description is the description of the tool, used in the prompt.
	Description string `json:"description"`
	// Parameters is the JSON schema of the tool input.
	Parameters *jsonschema.Schema `json:"parameters,omitempty"`
	// Strict requests strict schema adherence where the provider supports it.
	Strict bool `json:"strict,omitempty"`
}

// Message is one turn of a conversation. Exactly one of the variants is
// populated: text content for system/user/assistant turns, ToolCalls for an
// assistant tool-call turn, ToolResults for a tool turn.
type Message struct {
	Role        Role         `json:"role"`
	Content     string       `json:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// SystemMessage creates a system prompt message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant text message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolCallMessage creates an assistant message carrying tool calls.
func ToolCallMessage(calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// ToolResultMessage creates a tool message carrying execution results.
func ToolResultMessage(results ...ToolResult) Message {
	return Message{Role: RoleTool, ToolResults: results}
}

// GetContent returns a printable rendering of the message.
func (m Message) GetContent() string {
	var buf strings.Builder
	buf.WriteString(m.Content)
	for _, tc := range m.ToolCalls {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(tc.String())
	}
	for _, tr := range m.ToolResults {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(tr.String())
	}
	return buf.String()
}

// Usage carries token accounting reported by the provider.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Add accumulates usage across model calls of one run.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// ChatResponse is the normalized reply returned by a GenerateContent call.
type ChatResponse struct {
	// Content is the textual content of the reply, if any.
	Content string `json:"content"`
	// ToolCalls is the list of tool calls the model asks to invoke, if any.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason,omitempty"`
	// Usage is the token accounting of the call.
	Usage Usage `json:"usage"`
}

// HasToolCalls reports whether the model requested tool execution.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
