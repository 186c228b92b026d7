// Package agui maps loop events onto the AG-UI protocol so a frontend
// can render runs with any AG-UI compatible client.
//
// The mapping is 1:1 where an equivalent exists; loop housekeeping
// events with no protocol counterpart map to nil and are skipped.
package agui

import (
	"fmt"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/strandlabs/strand/event"
)

const roleAssistant = "assistant"

// Mapper converts loop events to AG-UI events for one run. It is not
// safe for concurrent use; create one Mapper per run.
type Mapper struct {
	threadID string
	runID    string
}

// NewMapper creates a Mapper for a single run. Empty ids are generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
	}
}

// ThreadID returns the thread id for this run.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run id for this run.
func (m *Mapper) RunID() string {
	return m.runID
}

// MapEvent converts one loop event to its AG-UI equivalent. Events
// with no equivalent (usage reports, compaction notices) return nil.
func (m *Mapper) MapEvent(e event.Event) events.Event {
	switch e.Type {
	case event.RunStart:
		return events.NewRunStartedEvent(m.threadID, m.runID)
	case event.RunEnd:
		return events.NewRunFinishedEvent(m.threadID, m.runID)
	case event.RunError:
		msg := "unknown error"
		if e.Error != nil {
			msg = e.Error.Error()
		}
		return events.NewRunErrorEvent(msg)

	case event.StepStart:
		return events.NewStepStartedEvent(stepName(e.Step))
	case event.StepEnd:
		return events.NewStepFinishedEvent(stepName(e.Step))

	case event.MessageStart:
		return events.NewTextMessageStartEvent(
			e.MessageID,
			events.WithRole(roleAssistant),
		)
	case event.MessageDelta:
		return events.NewTextMessageContentEvent(e.MessageID, e.Delta)
	case event.MessageEnd:
		return events.NewTextMessageEndEvent(e.MessageID)

	case event.ToolCallStart:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallStartEvent(e.ToolCall.ID, e.ToolCall.Name)
	case event.ToolCallArgs:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallArgsEvent(e.ToolCall.ID, e.ToolCall.Arguments)
	case event.ToolCallEnd:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallEndEvent(e.ToolCall.ID)
	case event.ToolCallResult:
		if e.ToolCall == nil || e.ToolResult == nil {
			return nil
		}
		messageID := events.GenerateMessageID()
		return events.NewToolCallResultEvent(messageID, e.ToolCall.ID, e.ToolResult.Content)

	case event.UsageReport, event.CompactionApplied:
		return nil

	default:
		return nil
	}
}

func stepName(step int) string {
	return fmt.Sprintf("step_%d", step)
}
