package agui

import (
	"errors"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/event"
)

func TestNewMapper(t *testing.T) {
	t.Run("generates missing ids", func(t *testing.T) {
		m := NewMapper("", "")
		assert.NotEmpty(t, m.ThreadID())
		assert.NotEmpty(t, m.RunID())
	})

	t.Run("keeps supplied ids", func(t *testing.T) {
		m := NewMapper("thread-1", "run-1")
		assert.Equal(t, "thread-1", m.ThreadID())
		assert.Equal(t, "run-1", m.RunID())
	})
}

func TestMapEvent(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	call := &ai.ToolCall{ID: "call_1", Name: "search", Arguments: `{"q": "x"}`}

	tests := []struct {
		name string
		in   event.Event
		want events.EventType
	}{
		{"run start", event.Event{Type: event.RunStart}, events.EventTypeRunStarted},
		{"run end", event.Event{Type: event.RunEnd}, events.EventTypeRunFinished},
		{"run error", event.Event{Type: event.RunError, Error: errors.New("boom")}, events.EventTypeRunError},
		{"step start", event.Event{Type: event.StepStart, Step: 1}, events.EventTypeStepStarted},
		{"step end", event.Event{Type: event.StepEnd, Step: 1}, events.EventTypeStepFinished},
		{"message start", event.Event{Type: event.MessageStart, MessageID: "msg-1"}, events.EventTypeTextMessageStart},
		{"message delta", event.Event{Type: event.MessageDelta, MessageID: "msg-1", Delta: "hi"}, events.EventTypeTextMessageContent},
		{"message end", event.Event{Type: event.MessageEnd, MessageID: "msg-1"}, events.EventTypeTextMessageEnd},
		{"tool start", event.Event{Type: event.ToolCallStart, ToolCall: call}, events.EventTypeToolCallStart},
		{"tool args", event.Event{Type: event.ToolCallArgs, ToolCall: call}, events.EventTypeToolCallArgs},
		{"tool end", event.Event{Type: event.ToolCallEnd, ToolCall: call}, events.EventTypeToolCallEnd},
		{
			"tool result",
			event.Event{Type: event.ToolCallResult, ToolCall: call, ToolResult: &ai.ToolResult{ToolCallID: "call_1", Content: "found"}},
			events.EventTypeToolCallResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.MapEvent(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Type())
		})
	}

	t.Run("events without protocol equivalents map to nil", func(t *testing.T) {
		assert.Nil(t, m.MapEvent(event.Event{Type: event.UsageReport}))
		assert.Nil(t, m.MapEvent(event.Event{Type: event.CompactionApplied}))
		assert.Nil(t, m.MapEvent(event.Event{Type: event.ToolCallStart})) // nil ToolCall
		assert.Nil(t, m.MapEvent(event.Event{Type: event.ToolCallResult, ToolCall: call})) // nil ToolResult
	})
}
