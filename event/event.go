// Package event defines the ordered event stream emitted by a loop
// execution. Consumers iterate the channel until a terminal event
// (RunEnd or RunError) appears; there are no callbacks.
package event

import (
	"time"

	ai "github.com/strandlabs/strand"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	// RunStart fires when a loop execution begins.
	RunStart Type = "run_start"

	// RunEnd fires when a loop execution completes. This includes the
	// iteration safety ceiling: hitting it is a graceful end, not an error.
	RunEnd Type = "run_end"

	// RunError fires when an unrecoverable provider error ends the run.
	// Cancellation does not produce RunError.
	RunError Type = "run_error"
)

// Iteration lifecycle events
const (
	// StepStart fires when an iteration begins.
	StepStart Type = "step_start"

	// StepEnd fires when an iteration completes.
	StepEnd Type = "step_end"
)

// Message lifecycle events
const (
	// MessageStart fires when an assistant message begins.
	MessageStart Type = "message_start"

	// MessageDelta fires for each streaming token.
	MessageDelta Type = "message_delta"

	// MessageEnd fires when an assistant message completes.
	MessageEnd Type = "message_end"
)

// Tool call lifecycle events
const (
	// ToolCallStart fires when a tool call begins (contains tool name).
	ToolCallStart Type = "tool_call_start"

	// ToolCallArgs fires with finalized tool call arguments.
	ToolCallArgs Type = "tool_call_args"

	// ToolCallEnd fires when tool execution is complete.
	ToolCallEnd Type = "tool_call_end"

	// ToolCallResult fires with the tool execution result.
	ToolCallResult Type = "tool_call_result"
)

// Housekeeping events
const (
	// UsageReport fires when the provider reports token usage for a turn.
	UsageReport Type = "usage_report"

	// CompactionApplied fires after the conversation has been replaced
	// by a summary plus recent tail.
	CompactionApplied Type = "compaction_applied"
)

// Event represents an observable occurrence during a loop execution.
type Event struct {
	// Type identifies the kind of event.
	Type Type

	// MessageID identifies the message for Start/Delta/End correlation.
	MessageID string

	// Delta contains streaming content for MessageDelta events.
	Delta string

	// Response contains the complete response for MessageEnd and RunEnd events.
	Response *ai.Response

	// ToolCall contains the tool call for tool-related events.
	ToolCall *ai.ToolCall

	// ToolResult contains the result for ToolCallResult events.
	ToolResult *ai.ToolResult

	// Usage contains token counts for UsageReport events.
	Usage *ai.Usage

	// Step is the current iteration number (1-indexed).
	Step int

	// Error contains the error for RunError events.
	Error error

	// Message contains additional context (e.g. termination reason).
	Message string

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Emit sends an event with timestamp to the channel (non-blocking).
func Emit(ch chan<- Event, e Event) {
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
		// Channel full - don't block the loop
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}
