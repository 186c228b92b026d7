package strand

import "context"

// StreamEventType identifies the kind of canonical stream event.
type StreamEventType string

const (
	// StreamChunk carries incremental assistant text.
	StreamChunk StreamEventType = "chunk"

	// StreamToolStart announces a tool call: CallID and ToolName are set.
	StreamToolStart StreamEventType = "tool_start"

	// StreamToolDelta carries an incremental fragment of a tool call's
	// argument JSON. Fragments are keyed by CallID and concatenate into
	// the full argument string.
	StreamToolDelta StreamEventType = "tool_delta"

	// StreamToolEnd marks a tool call's argument transmission complete.
	StreamToolEnd StreamEventType = "tool_end"

	// StreamToolError reports a tool block that could not be decoded.
	// The turn continues; consumers treat the call's arguments as empty.
	StreamToolError StreamEventType = "tool_error"

	// StreamUsage reports token usage for the turn.
	StreamUsage StreamEventType = "usage"

	// StreamDone terminates the sequence normally. Response carries the
	// provider's assembled view of the turn.
	StreamDone StreamEventType = "done"

	// StreamError terminates the sequence with an unrecoverable
	// transport failure.
	StreamError StreamEventType = "error"
)

// StreamEvent is one tagged event in the canonical provider stream.
//
// Every provider adapter normalizes its native protocol into this
// sequence. Exactly one terminal event (StreamDone or StreamError) is
// emitted per stream, after which the channel is closed.
type StreamEvent struct {
	Type StreamEventType

	// Delta contains incremental text for StreamChunk events.
	Delta string

	// CallID identifies the tool call for tool_* events.
	CallID string

	// ToolName is the tool being called, set on StreamToolStart.
	ToolName string

	// ArgsDelta is a partial-JSON argument fragment for StreamToolDelta.
	ArgsDelta string

	// Usage carries token counts for StreamUsage events.
	Usage *Usage

	// Response is the provider's assembled turn, set on StreamDone.
	Response *Response

	// Err is the transport failure for StreamError events.
	Err error
}

// StreamHandle is a cancellable in-flight provider stream.
//
// Cancel aborts the underlying transport; after cancellation no further
// events fire except a terminal one used purely for cleanup bookkeeping.
type StreamHandle struct {
	events <-chan StreamEvent
	cancel context.CancelFunc
}

// NewStreamHandle wraps an event channel and a cancel function.
// Provider adapters use this; callers receive it from Stream.
func NewStreamHandle(events <-chan StreamEvent, cancel context.CancelFunc) *StreamHandle {
	return &StreamHandle{events: events, cancel: cancel}
}

// Events returns the ordered event sequence. The channel is closed
// after the terminal event.
func (h *StreamHandle) Events() <-chan StreamEvent {
	return h.events
}

// Cancel aborts the underlying transport. Safe to call more than once.
func (h *StreamHandle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}

// StreamProvider is implemented by each provider adapter.
type StreamProvider interface {
	// Stream starts one model turn and returns a cancellable handle
	// emitting the canonical event sequence.
	Stream(ctx context.Context, messages []Message, opts ...Option) (*StreamHandle, error)
}
