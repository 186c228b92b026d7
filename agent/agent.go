// Package agent drives a bounded, multi-turn tool-calling loop against
// one provider stream.
//
// One Loop execution owns its conversation exclusively and proceeds
// turn by turn: admission control gates the outbound call, the provider
// adapter streams canonical events, tool calls are finalized and run
// through the gateway, and results feed back into the conversation. A
// hard iteration ceiling guarantees termination regardless of model
// behavior.
package agent

import (
	"context"
	"encoding/json"
	"errors"

	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/compact"
	"github.com/strandlabs/strand/event"
	"github.com/strandlabs/strand/ratelimit"
	"github.com/strandlabs/strand/retry"
	"github.com/strandlabs/strand/tool"
)

// Loop orchestrates autonomous tool-calling conversations.
type Loop struct {
	provider ai.StreamProvider
	gateway  *tool.Gateway
}

// New creates a Loop over a provider adapter and a tool gateway.
func New(provider ai.StreamProvider, gateway *tool.Gateway) *Loop {
	return &Loop{provider: provider, gateway: gateway}
}

// Run executes the loop to completion and returns the result.
// Only an unrecoverable provider error yields a non-nil error;
// cancellation and the iteration ceiling are clean stops.
func (l *Loop) Run(ctx context.Context, messages []ai.Message, opts ...Option) (*Result, error) {
	eventCh := event.NewChannel()
	result := l.runLoop(ctx, messages, eventCh, ApplyOptions(opts...))
	close(eventCh)
	return result, result.Err
}

// RunStream executes the loop and returns its ordered event sequence.
// The channel is closed after the terminal RunEnd or RunError event.
func (l *Loop) RunStream(ctx context.Context, messages []ai.Message, opts ...Option) <-chan event.Event {
	eventCh := event.NewChannel()
	go func() {
		defer close(eventCh)
		l.runLoop(ctx, messages, eventCh, ApplyOptions(opts...))
	}()
	return eventCh
}

// turn accumulates one assistant turn from the canonical stream.
type turn struct {
	chunks    []string
	callOrder []string
	callNames map[string]string
	fragments map[string]string
	usage     *ai.Usage
	response  *ai.Response
	err       error
}

func (l *Loop) runLoop(ctx context.Context, messages []ai.Message, eventCh chan<- event.Event, options *Options) *Result {
	result := &Result{
		Messages: append([]ai.Message(nil), messages...),
	}

	event.Emit(eventCh, event.Event{Type: event.RunStart})

	chatOpts := options.ChatOptions
	if l.gateway != nil && l.gateway.Registry().Len() > 0 {
		chatOpts = append([]ai.Option{ai.WithTools(l.gateway.Registry().Tools())}, chatOpts...)
	}

	for iteration := 1; ; iteration++ {
		// The ceiling is a safety stop: whatever text the last turn
		// produced becomes the output and the run ends Done.
		if iteration > options.MaxIterations {
			result.Termination = TerminationMaxIterations
			l.emitEnd(eventCh, result)
			return result
		}

		if ctx.Err() != nil {
			result.Termination = TerminationCancelled
			l.emitEnd(eventCh, result)
			return result
		}

		event.Emit(eventCh, event.Event{Type: event.StepStart, Step: iteration})
		result.Iterations = iteration

		t, stop := l.executeTurn(ctx, result.Messages, chatOpts, iteration, eventCh, options)
		if stop != "" {
			result.Termination = stop
			if stop == TerminationError {
				result.Err = t.err
				event.Emit(eventCh, event.Event{Type: event.RunError, Step: iteration, Error: t.err})
				return result
			}
			l.emitEnd(eventCh, result)
			return result
		}

		if options.Session != nil {
			options.Session.RecordIteration()
		}
		if t.usage != nil {
			result.Usage.Add(*t.usage)
		}

		text, calls := t.finalize()
		response := &ai.Response{Content: text, ToolCalls: calls, Usage: result.Usage}
		if t.response != nil {
			response.FinishReason = t.response.FinishReason
		}
		event.Emit(eventCh, event.Event{Type: event.StepEnd, Step: iteration, Response: response})

		if len(calls) == 0 {
			// Final turn: the only one whose text reaches the caller.
			l.emitText(eventCh, iteration, t.chunks, response)
			result.Output = text
			result.Messages = append(result.Messages, ai.Message{Role: ai.RoleAssistant, Content: text})
			result.Termination = TerminationComplete
			l.emitEnd(eventCh, result)
			return result
		}

		// Intermediate-turn prose is transcript scaffolding: it stays
		// in the conversation but is suppressed from the caller.
		result.Output = text
		result.Messages = append(result.Messages, ai.Message{
			Role:      ai.RoleAssistant,
			Content:   text,
			ToolCalls: calls,
		})

		for i := range calls {
			event.Emit(eventCh, event.Event{Type: event.ToolCallStart, Step: iteration, ToolCall: &calls[i]})
			event.Emit(eventCh, event.Event{Type: event.ToolCallArgs, Step: iteration, ToolCall: &calls[i]})
		}

		turnResult := l.gateway.ExecuteTurn(ctx, calls)

		for i := range calls {
			event.Emit(eventCh, event.Event{Type: event.ToolCallEnd, Step: iteration, ToolCall: &calls[i]})
			event.Emit(eventCh, event.Event{Type: event.ToolCallResult, Step: iteration, ToolCall: &calls[i], ToolResult: &turnResult.Results[i]})
		}

		result.Messages = append(result.Messages, ai.NewToolResultMessage(turnResult.Results...))

		if ctx.Err() != nil {
			// Tool results from a cancelled turn are discarded from the
			// caller's perspective; no further turn starts.
			result.Termination = TerminationCancelled
			l.emitEnd(eventCh, result)
			return result
		}

		// Compaction is deferred until the whole turn has been
		// processed, then applied once.
		if turnResult.Prune != nil {
			result.Messages = compact.Compact(result.Messages, *turnResult.Prune)
			if options.Session != nil {
				options.Session.RecordSummary(turnResult.Prune.Format())
			}
			event.Emit(eventCh, event.Event{Type: event.CompactionApplied, Step: iteration})
		}
	}
}

// executeTurn runs one provider stream to completion, accumulating the
// turn. A non-empty TerminationReason means the run must stop.
func (l *Loop) executeTurn(ctx context.Context, messages []ai.Message, chatOpts []ai.Option, iteration int, eventCh chan<- event.Event, options *Options) (*turn, TerminationReason) {
	t := &turn{
		callNames: make(map[string]string),
		fragments: make(map[string]string),
	}

	var release ratelimit.ReleaseFunc
	if options.Limiter != nil {
		var err error
		release, err = options.Limiter.Acquire(ctx, options.RateKey)
		if err != nil {
			// Cancellation while waiting for admission is a clean stop.
			return t, TerminationCancelled
		}
	}
	if release != nil {
		defer release()
	}

	handle, err := retry.Do(ctx, options.Retry, func() (*ai.StreamHandle, error) {
		return l.provider.Stream(ctx, messages, chatOpts...)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return t, TerminationCancelled
		}
		t.err = err
		return t, TerminationError
	}

	for ev := range handle.Events() {
		switch ev.Type {
		case ai.StreamChunk:
			t.chunks = append(t.chunks, ev.Delta)

		case ai.StreamToolStart:
			t.callOrder = append(t.callOrder, ev.CallID)
			t.callNames[ev.CallID] = ev.ToolName
			if _, ok := t.fragments[ev.CallID]; !ok {
				t.fragments[ev.CallID] = ""
			}

		case ai.StreamToolDelta:
			t.fragments[ev.CallID] += ev.ArgsDelta

		case ai.StreamToolEnd:
			// Arguments finalize at turn end; nothing to do per call.

		case ai.StreamToolError:
			// Undecodable tool block: the call finalizes with empty
			// arguments rather than aborting the turn.

		case ai.StreamUsage:
			if ev.Usage != nil {
				u := *ev.Usage
				t.usage = &u
				if options.Limiter != nil {
					options.Limiter.RecordUsage(options.RateKey, u)
				}
				if options.Session != nil {
					options.Session.RecordUsage(u)
				}
				event.Emit(eventCh, event.Event{Type: event.UsageReport, Step: iteration, Usage: &u})
			}

		case ai.StreamDone:
			t.response = ev.Response

		case ai.StreamError:
			t.err = ev.Err
		}
	}

	if t.err != nil {
		if errors.Is(t.err, context.Canceled) || ctx.Err() != nil {
			return t, TerminationCancelled
		}
		return t, TerminationError
	}
	if ctx.Err() != nil {
		return t, TerminationCancelled
	}

	return t, ""
}

// finalize assembles the turn's text and tool calls. Argument fragments
// that fail to parse as JSON are replaced with an empty object; a
// malformed tool call never aborts the loop.
func (t *turn) finalize() (string, []ai.ToolCall) {
	var text string
	for _, c := range t.chunks {
		text += c
	}

	calls := make([]ai.ToolCall, 0, len(t.callOrder))
	for _, id := range t.callOrder {
		args := t.fragments[id]
		if args == "" || !json.Valid([]byte(args)) {
			args = "{}"
		}
		calls = append(calls, ai.ToolCall{
			ID:        id,
			Name:      t.callNames[id],
			Arguments: args,
		})
	}
	return text, calls
}

// emitText flushes a turn's buffered chunks as message events. Only the
// final tool-free turn gets this; suppressed turns never emit text.
func (l *Loop) emitText(eventCh chan<- event.Event, iteration int, chunks []string, response *ai.Response) {
	if len(chunks) == 0 {
		return
	}
	messageID := ai.GenerateMessageID()
	event.Emit(eventCh, event.Event{Type: event.MessageStart, Step: iteration, MessageID: messageID})
	for _, c := range chunks {
		event.Emit(eventCh, event.Event{Type: event.MessageDelta, Step: iteration, MessageID: messageID, Delta: c})
	}
	event.Emit(eventCh, event.Event{Type: event.MessageEnd, Step: iteration, MessageID: messageID, Response: response})
}

func (l *Loop) emitEnd(eventCh chan<- event.Event, result *Result) {
	event.Emit(eventCh, event.Event{
		Type:    event.RunEnd,
		Step:    result.Iterations,
		Message: string(result.Termination),
		Response: &ai.Response{
			Content: result.Output,
			Usage:   result.Usage,
		},
	})
}
