package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a conversation: a role plus an ordered list of
// parts. History order is the only ordering guarantee; a conversation is
// never mutated concurrently.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is one segment of message content. The set is closed: TextPart,
// ToolCallPart and ToolResultPart.
type Part interface {
	isPart()
}

// TextPart carries plain text.
type TextPart struct {
	Text string `json:"text"`
}

func (TextPart) isPart() {}

// ToolCallPart records a model-requested tool invocation.
type ToolCallPart struct {
	Call ToolCall `json:"call"`
}

func (ToolCallPart) isPart() {}

// ToolResultPart records the outcome of a tool invocation.
type ToolResultPart struct {
	Result ToolResult `json:"result"`
}

func (ToolResultPart) isPart() {}

// ToolCall is a model-requested call to a named tool with raw JSON arguments.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolResult is the payload produced for a tool call. Failures are folded
// into the payload itself (an object carrying an "error" member) so the
// model sees them as data.
type ToolResult struct {
	CallID  string          `json:"call_id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// NewTextMessage builds a single-part text message.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// NewToolCallMessage builds the assistant message recording one step's tool
// invocations, in the order the model requested them.
func NewToolCallMessage(calls []ToolCall) Message {
	parts := make([]Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, ToolCallPart{Call: c})
	}
	return Message{Role: RoleAssistant, Parts: parts}
}

// NewToolResultMessage builds a tool message carrying one invocation's result.
func NewToolResultMessage(res ToolResult) Message {
	return Message{Role: RoleTool, Parts: []Part{ToolResultPart{Result: res}}}
}

// Text joins the message's text parts.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(TextPart); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ToolCalls returns the tool calls carried by the message, in part order.
func (m Message) ToolCalls() []ToolCall {
	var out []ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			out = append(out, tc.Call)
		}
	}
	return out
}

// ToolResults returns the tool results carried by the message, in part order.
func (m Message) ToolResults() []ToolResult {
	var out []ToolResult
	for _, p := range m.Parts {
		if tr, ok := p.(ToolResultPart); ok {
			out = append(out, tr.Result)
		}
	}
	return out
}

// part wire envelope: {"type": "...", ...fields}
type partEnvelope struct {
	Type   string      `json:"type"`
	Text   string      `json:"text,omitempty"`
	Call   *ToolCall   `json:"call,omitempty"`
	Result *ToolResult `json:"result,omitempty"`
}

// MarshalJSON encodes the message with tagged parts so histories survive a
// round trip through the API and the conversation store.
func (m Message) MarshalJSON() ([]byte, error) {
	envs := make([]partEnvelope, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch v := p.(type) {
		case TextPart:
			envs = append(envs, partEnvelope{Type: "text", Text: v.Text})
		case ToolCallPart:
			call := v.Call
			envs = append(envs, partEnvelope{Type: "tool_call", Call: &call})
		case ToolResultPart:
			res := v.Result
			envs = append(envs, partEnvelope{Type: "tool_result", Result: &res})
		default:
			return nil, fmt.Errorf("models: unknown part type %T", p)
		}
	}
	return json.Marshal(struct {
		Role  Role           `json:"role"`
		Parts []partEnvelope `json:"parts"`
	}{Role: m.Role, Parts: envs})
}

// UnmarshalJSON decodes the tagged-part wire form. Unknown part types are an
// error: the part set is a stable contract.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role  Role           `json:"role"`
		Parts []partEnvelope `json:"parts"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	parts := make([]Part, 0, len(wire.Parts))
	for _, env := range wire.Parts {
		switch env.Type {
		case "text":
			parts = append(parts, TextPart{Text: env.Text})
		case "tool_call":
			if env.Call == nil {
				return fmt.Errorf("models: tool_call part missing call")
			}
			parts = append(parts, ToolCallPart{Call: *env.Call})
		case "tool_result":
			if env.Result == nil {
				return fmt.Errorf("models: tool_result part missing result")
			}
			parts = append(parts, ToolResultPart{Result: *env.Result})
		default:
			return fmt.Errorf("models: unknown part type %q", env.Type)
		}
	}
	m.Role = wire.Role
	m.Parts = parts
	return nil
}
