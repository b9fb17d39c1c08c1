package chat

import "github.com/mohammad-safakhou/askweb/models"

// EventType tags one entry of the driver's output sequence.
type EventType string

const (
	// EventText carries one streamed text delta.
	EventText EventType = "text"
	// EventToolCall announces a model-requested tool invocation.
	EventToolCall EventType = "tool_call"
	// EventToolResult reports a settled tool invocation.
	EventToolResult EventType = "tool_result"
	// EventDone terminates the sequence normally. Text holds the complete
	// answer and Messages the final conversation history.
	EventDone EventType = "done"
	// EventError terminates the sequence on a model-invocation failure.
	EventError EventType = "error"
)

// Event is one element of the finite, ordered sequence a driver run
// produces. The sequence always ends with exactly one EventDone or
// EventError.
type Event struct {
	Type       EventType
	Text       string
	ToolCall   *models.ToolCall
	ToolResult *models.ToolResult
	Messages   []models.Message
	Err        error
}
